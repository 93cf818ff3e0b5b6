package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

const (
	notProvided  = "Not provided"
	notSpecified = "Not specified"
)

type Service struct {
	users   repository.UserRepository
	records repository.RecordRepository
}

func NewService(users repository.UserRepository, records repository.RecordRepository) *Service {
	return &Service{users: users, records: records}
}

// Profile returns the calling patient with their live record count.
func (s *Service) Profile(ctx context.Context, actor model.Actor) (*model.PatientProfile, error) {
	u, err := s.get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	n, err := s.countRecords(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &model.PatientProfile{User: u, RecordCount: n}, nil
}

// List returns every patient, newest first.
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	patients, err := s.users.List(ctx, model.UserFilter{Role: model.RolePatient})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}

func (s *Service) HealthCard(ctx context.Context, actor model.Actor) (*model.HealthCard, error) {
	u, err := s.get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u.Role != model.RolePatient {
		return nil, apperrors.Forbidden("Only patients can have health cards")
	}

	n, err := s.countRecords(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	card := &model.HealthCard{
		PatientID:        u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		Phone:            orDefault(u.Phone, notProvided),
		BloodGroup:       orDefault(u.BloodGroup, notSpecified),
		DateOfBirth:      orDefault(u.DateOfBirth, notSpecified),
		Address:          orDefault(u.Address, notProvided),
		EmergencyContact: orDefault(u.EmergencyContact, notProvided),
		TotalRecords:     n,
		QRData:           model.HealthCardQRPrefix + u.ID.String(),
	}
	if !u.CreatedAt.IsZero() {
		card.MemberSince = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return card, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User", err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

func (s *Service) countRecords(ctx context.Context, patientID uuid.UUID) (int64, error) {
	n, err := s.records.Count(ctx, model.RecordFilter{PatientID: patientID})
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func orDefault(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
