package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		ExistsByNMCUID(ctx context.Context, nmcUID string) (bool, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		// List returns matching users, newest first.
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
		Count(ctx context.Context, filter model.UserFilter) (int64, error)
	}

	RecordRepository interface {
		Create(ctx context.Context, record *model.Record) error
		// GetByID returns the record including its ciphertext, deleted or not.
		GetByID(ctx context.Context, id uuid.UUID) (*model.Record, error)
		// ListByPatient returns non-deleted records without ciphertext,
		// newest upload first.
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Record, error)
		// SoftDelete flags a live record; ErrNotFound if absent or already deleted.
		SoftDelete(ctx context.Context, id uuid.UUID) error
		Count(ctx context.Context, filter model.RecordFilter) (int64, error)
	}

	AccessRepository interface {
		// Create fails with ErrDuplicate when the pair already has a grant.
		Create(ctx context.Context, perm *model.AccessPermission) error
		Get(ctx context.Context, patientID, doctorID uuid.UUID) (*model.AccessPermission, error)
		Delete(ctx context.Context, patientID, doctorID uuid.UUID) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AccessPermission, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AccessPermission, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		// List returns the newest entries first; uuid.Nil matches every user.
		List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuditLog, error)
	}

	// Store owns the connection shared by every repository.
	Store interface {
		Users() UserRepository
		Records() RecordRepository
		Access() AccessRepository
		Audit() AuditRepository
		Ping(ctx context.Context) error
		Migrate(ctx context.Context) error
		Close(ctx context.Context) error
	}
)
