// Package admin holds the operations reserved for administrators: stats,
// audit review, account status and doctor verification.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medicare-api/internal/email"
	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

// VerifyAction is the admin's decision on a pending doctor.
type VerifyAction string

const (
	VerifyApprove VerifyAction = "approve"
	VerifyReject  VerifyAction = "reject"
)

const recentWindow = 7 * 24 * time.Hour

type Service struct {
	users    repository.UserRepository
	records  repository.RecordRepository
	auditor  *audit.Service
	emailSvc email.Service
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(users repository.UserRepository, records repository.RecordRepository, auditor *audit.Service,
	emailSvc email.Service, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		records:  records,
		auditor:  auditor,
		emailSvc: emailSvc,
		logger:   logger.With().Str("component", "admin").Logger(),
		now:      time.Now,
	}
}

func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	verified, unverified := true, false
	since := s.now().UTC().Add(-recentWindow)

	var stats model.Stats
	counts := []struct {
		out   *int64
		count func() (int64, error)
	}{
		{&stats.Users.Total, func() (int64, error) { return s.users.Count(ctx, model.UserFilter{}) }},
		{&stats.Users.Patients, func() (int64, error) {
			return s.users.Count(ctx, model.UserFilter{Role: model.RolePatient})
		}},
		{&stats.Users.Doctors, func() (int64, error) {
			return s.users.Count(ctx, model.UserFilter{Role: model.RoleDoctor, Verified: &verified})
		}},
		{&stats.Users.PendingDoctors, func() (int64, error) {
			return s.users.Count(ctx, model.UserFilter{Role: model.RoleDoctor, Verified: &unverified})
		}},
		{&stats.Records.Active, func() (int64, error) { return s.records.Count(ctx, model.RecordFilter{}) }},
		{&stats.RecentActivity.UploadsLast7Days, func() (int64, error) {
			return s.records.Count(ctx, model.RecordFilter{UploadedSince: since})
		}},
		{&stats.RecentActivity.RegistrationsLast7Days, func() (int64, error) {
			return s.users.Count(ctx, model.UserFilter{CreatedSince: since})
		}},
	}
	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		*c.out = n
	}
	return &stats, nil
}

// AuditLogs returns the latest entries across all users.
func (s *Service) AuditLogs(ctx context.Context) ([]*model.AuditLog, error) {
	logs, err := s.auditor.Latest(ctx, audit.DefaultLatestLimit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return logs, nil
}

// ToggleActive flips the user's is_active flag and returns the new value.
func (s *Service) ToggleActive(ctx context.Context, actor model.Actor, id uuid.UUID) (bool, error) {
	u, err := s.get(ctx, id, "User")
	if err != nil {
		return false, err
	}

	u.IsActive = !u.IsActive
	u.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, u); err != nil {
		return false, err
	}

	s.auditor.Record(ctx, actor, model.ActionToggleUserStatus, model.ResourceUser, id.String(), nil)
	return u.IsActive, nil
}

// PendingDoctors lists unverified doctors, newest first.
func (s *Service) PendingDoctors(ctx context.Context) ([]*model.User, error) {
	unverified := false
	doctors, err := s.users.List(ctx, model.UserFilter{Role: model.RoleDoctor, Verified: &unverified})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}

// VerifyDoctor approves or rejects a doctor. Rejection removes the account.
// The doctor is notified either way; a failed notification is only logged.
func (s *Service) VerifyDoctor(ctx context.Context, actor model.Actor, id uuid.UUID, action VerifyAction) error {
	if action != VerifyApprove && action != VerifyReject {
		return apperrors.BadRequest("Invalid action. Must be approve or reject", nil)
	}

	u, err := s.get(ctx, id, "Doctor")
	if err != nil {
		return err
	}
	if u.Role != model.RoleDoctor {
		return apperrors.BadRequest("User is not a doctor", nil)
	}

	var notify func(context.Context, string, string) error
	if action == VerifyApprove {
		now := s.now().UTC()
		u.IsVerified = true
		u.VerifiedAt = &now
		u.VerifiedBy = &actor.UserID
		u.UpdatedAt = now
		if err := s.save(ctx, u); err != nil {
			return err
		}
		s.auditor.Record(ctx, actor, model.ActionDoctorApprove, model.ResourceUser, id.String(), nil)
		notify = s.emailSvc.SendDoctorApproved
	} else {
		if err := s.users.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("Doctor", err)
			}
			return apperrors.Internal(err)
		}
		s.auditor.Record(ctx, actor, model.ActionDoctorReject, model.ResourceUser, id.String(), nil)
		notify = s.emailSvc.SendDoctorRejected
	}

	if err := notify(ctx, u.Email, u.FullName); err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", id.String()).
			Str("action", string(action)).
			Msg("failed to send verification email")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID, resource string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(resource, err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u *model.User) error {
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}
