package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medicare-api/internal/email"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/internal/service/audit"
	"github.com/jwalitptl/medicare-api/pkg/auth"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
	"github.com/jwalitptl/medicare-api/pkg/security"
	"github.com/jwalitptl/medicare-api/pkg/validator"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgDeactivated        = "Account is deactivated. Please contact administrator."
	msgPendingApproval    = "Your account is pending admin approval. Please wait for verification."
)

type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	emailSvc email.Service
	auditor  *audit.Service
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(userRepo repository.UserRepository, hasher security.PasswordHasher, jwtSvc auth.JWTService,
	emailSvc email.Service, auditor *audit.Service, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		emailSvc: emailSvc,
		auditor:  auditor,
		metrics:  m,
		logger:   logger.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Doctors start unverified and wait for an
// admin; everyone else can log in immediately.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest, ipAddress string) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.BadRequest("Invalid role. Must be patient, doctor, or admin", nil)
	}

	var nmcUID *string
	if req.Role == model.RoleDoctor {
		if req.NMCUID == nil || *req.NMCUID == "" {
			return nil, apperrors.BadRequest("NMC UID is required for doctor registration", nil)
		}
		if !validator.ValidNMCUID(*req.NMCUID) {
			return nil, apperrors.BadRequest("Invalid NMC UID format. Must be 7 digits", nil)
		}
		taken, err := s.userRepo.ExistsByNMCUID(ctx, *req.NMCUID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if taken {
			return nil, apperrors.Conflict("This NMC UID is already registered")
		}
		nmcUID = req.NMCUID
	}

	if err := security.CheckStrength(req.Password); err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}

	emailAddr := NormalizeEmail(req.Email)
	if _, err := s.userRepo.GetByEmail(ctx, emailAddr); err == nil {
		return nil, apperrors.Conflict("User with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	conditions := model.StringList{}
	if req.Role == model.RolePatient && req.IsDiabetic {
		conditions = append(conditions, "Diabetes")
	}

	now := s.now().UTC()
	user := &model.User{
		ID:                 uuid.New(),
		Email:              emailAddr,
		PasswordHash:       hash,
		Role:               req.Role,
		FullName:           req.FullName,
		Phone:              req.Phone,
		NMCUID:             nmcUID,
		IsVerified:         req.Role != model.RoleDoctor,
		IsActive:           true,
		Allergies:          model.StringList{},
		ChronicConditions:  conditions,
		CurrentMedications: model.StringList{},
		IsProfileComplete:  req.Role != model.RolePatient,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("User with this email already exists")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	actor := model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role, IPAddress: ipAddress}
	s.auditor.Record(ctx, actor, model.ActionRegister, model.ResourceUser, user.ID.String(), nil)

	if user.Role == model.RoleDoctor {
		if err := s.emailSvc.SendRegistrationPending(ctx, user.Email, user.FullName); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to send registration email")
		}
	}

	return user, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *Service) Login(ctx context.Context, req model.LoginRequest, ipAddress string) (*model.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.Logins.WithLabelValues("invalid_credentials").Inc()
			return nil, apperrors.Unauthorized(msgInvalidCredentials, nil)
		}
		return nil, apperrors.Internal(err)
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		s.metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, apperrors.Unauthorized(msgInvalidCredentials, nil)
	}

	if !user.IsActive {
		s.metrics.Logins.WithLabelValues("deactivated").Inc()
		return nil, apperrors.Forbidden(msgDeactivated)
	}

	if user.Role == model.RoleDoctor && !user.IsVerified {
		s.metrics.Logins.WithLabelValues("pending_approval").Inc()
		return nil, apperrors.Forbidden(msgPendingApproval)
	}

	if user.RefreshCompleteness() {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to persist profile completeness: %w", err))
		}
	}

	token, err := s.jwtSvc.GenerateAccessToken(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create authentication token: %w", err))
	}

	actor := model.Actor{UserID: user.ID, Email: user.Email, Role: user.Role, IPAddress: ipAddress}
	s.auditor.Record(ctx, actor, model.ActionLogin, model.ResourceUser, user.ID.String(), nil)
	s.metrics.Logins.WithLabelValues("success").Inc()

	return &model.LoginResult{Token: token, User: user}, nil
}

// Verify validates a token and returns its claims.
func (s *Service) Verify(token string) (*auth.Claims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.Unauthorized(auth.ErrTokenExpired.Error(), err)
		}
		return nil, apperrors.Unauthorized(auth.ErrTokenInvalid.Error(), err)
	}
	return claims, nil
}
