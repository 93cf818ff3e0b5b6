package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

const (
	MsgForeignGrant  = "Cannot grant access for other patients"
	MsgForeignRevoke = "Cannot revoke access for other patients"

	msgManagersOnly = "Only patients or admins can manage access"
)

// GrantInput names the doctor and, for admins, the patient. A nil PatientID
// means the caller.
type GrantInput struct {
	DoctorID        uuid.UUID
	PatientID       *uuid.UUID
	PermissionLevel string
}

type Service struct {
	access  repository.AccessRepository
	users   repository.UserRepository
	auditor *audit.Service
	now     func() time.Time
}

func NewService(access repository.AccessRepository, users repository.UserRepository, auditor *audit.Service) *Service {
	return &Service{access: access, users: users, auditor: auditor, now: time.Now}
}

// Grant lets one doctor read one patient's records and returns the grant id.
func (s *Service) Grant(ctx context.Context, actor model.Actor, in GrantInput) (uuid.UUID, error) {
	patientID, err := s.resolvePatient(ctx, actor, in.PatientID, MsgForeignGrant)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.requireRole(ctx, in.DoctorID, model.RoleDoctor, "Doctor"); err != nil {
		return uuid.Nil, err
	}

	level := in.PermissionLevel
	if level == "" {
		level = model.PermissionRead
	}

	perm := &model.AccessPermission{
		ID:              uuid.New(),
		PatientID:       patientID,
		DoctorID:        in.DoctorID,
		PermissionLevel: level,
		GrantedAt:       s.now().UTC(),
	}
	if err := s.access.Create(ctx, perm); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return uuid.Nil, apperrors.Conflict("Access already granted")
		}
		return uuid.Nil, apperrors.Internal(err)
	}

	s.auditor.Record(ctx, actor, model.ActionGrantAccess, model.ResourceAccessPermission, perm.ID.String(), model.JSONMap{
		"doctor_id":        in.DoctorID.String(),
		"patient_id":       patientID.String(),
		"permission_level": level,
	})
	return perm.ID, nil
}

// Revoke deletes the grant between the patient and doctor.
func (s *Service) Revoke(ctx context.Context, actor model.Actor, doctorID uuid.UUID, patient *uuid.UUID) error {
	patientID, err := s.resolvePatient(ctx, actor, patient, MsgForeignRevoke)
	if err != nil {
		return err
	}

	if err := s.access.Delete(ctx, patientID, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Permission", err)
		}
		return apperrors.Internal(err)
	}

	s.auditor.Record(ctx, actor, model.ActionRevokeAccess, model.ResourceAccessPermission, "", model.JSONMap{
		"doctor_id":  doctorID.String(),
		"patient_id": patientID.String(),
	})
	return nil
}

// ListFor returns the grants involving the caller with the other side's
// public profile attached. Admins have none.
func (s *Service) ListFor(ctx context.Context, actor model.Actor) ([]*model.AccessPermission, error) {
	var (
		perms []*model.AccessPermission
		err   error
	)
	switch actor.Role {
	case model.RolePatient:
		perms, err = s.access.ListByPatient(ctx, actor.UserID)
	case model.RoleDoctor:
		perms, err = s.access.ListByDoctor(ctx, actor.UserID)
	default:
		return []*model.AccessPermission{}, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	for _, p := range perms {
		counterpart := p.DoctorID
		if actor.Role == model.RoleDoctor {
			counterpart = p.PatientID
		}
		u, err := s.users.GetByID(ctx, counterpart)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if actor.Role == model.RoleDoctor {
			p.Patient = u.Public()
		} else {
			p.Doctor = u.Public()
		}
	}
	return perms, nil
}

func (s *Service) resolvePatient(ctx context.Context, actor model.Actor, requested *uuid.UUID, foreignMsg string) (uuid.UUID, error) {
	switch actor.Role {
	case model.RolePatient:
		if requested != nil && *requested != actor.UserID {
			return uuid.Nil, apperrors.Forbidden(foreignMsg)
		}
		return actor.UserID, nil
	case model.RoleAdmin:
		if requested == nil {
			return uuid.Nil, apperrors.BadRequest("patient_id required", nil)
		}
		if err := s.requireRole(ctx, *requested, model.RolePatient, "Patient"); err != nil {
			return uuid.Nil, err
		}
		return *requested, nil
	default:
		return uuid.Nil, apperrors.Forbidden(msgManagersOnly)
	}
}

func (s *Service) requireRole(ctx context.Context, id uuid.UUID, role model.Role, resource string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(resource, err)
		}
		return apperrors.Internal(err)
	}
	if u.Role != role {
		return apperrors.NotFound(resource, nil)
	}
	return nil
}
