package user

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

// MaxPhotoSize is the largest accepted profile photo.
const MaxPhotoSize = 2 << 20

var photoExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true}

type Service struct {
	repo    repository.UserRepository
	auditor *audit.Service
	now     func() time.Time
}

func NewService(repo repository.UserRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor, now: time.Now}
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("User", err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u *model.User) error {
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

// GetSelf returns the caller's profile, persisting a changed completeness flag.
func (s *Service) GetSelf(ctx context.Context, actor model.Actor) (*model.User, error) {
	u, err := s.get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u.RefreshCompleteness() {
		if err := s.save(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.get(ctx, id)
}

// ListAll returns every user, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx, model.UserFilter{})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// UpdateProfile applies the present fields of req to the caller's profile.
func (s *Service) UpdateProfile(ctx context.Context, actor model.Actor, req *model.UpdateProfileRequest) (*model.User, error) {
	u, err := s.get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if !req.Apply(u) {
		return nil, apperrors.BadRequest("No fields to update", nil)
	}
	u.UpdatedAt = s.now().UTC()
	u.RefreshCompleteness()

	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, actor, model.ActionUpdateProfile, model.ResourceUser, u.ID.String(), nil)
	return u, nil
}

// PhotoExtension returns the lower-cased extension of filename, or "".
func PhotoExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// UploadPhoto stores data inline as a data URL and returns it.
func (s *Service) UploadPhoto(ctx context.Context, actor model.Actor, filename string, data []byte) (string, *model.User, error) {
	ext := PhotoExtension(filename)
	if !photoExtensions[ext] {
		return "", nil, apperrors.BadRequest("Invalid file type. Only JPG, JPEG, PNG allowed", nil)
	}
	if len(data) > MaxPhotoSize {
		return "", nil, apperrors.BadRequest("File too large. Maximum size is 2MB", nil)
	}

	u, err := s.get(ctx, actor.UserID)
	if err != nil {
		return "", nil, err
	}

	photo := fmt.Sprintf("data:image/%s;base64,%s", ext, base64.StdEncoding.EncodeToString(data))
	u.ProfilePhoto = &photo
	u.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, u); err != nil {
		return "", nil, err
	}

	s.auditor.Record(ctx, actor, model.ActionUploadProfilePhoto, model.ResourceUser, u.ID.String(), nil)
	return photo, u, nil
}

func (s *Service) DeletePhoto(ctx context.Context, actor model.Actor) error {
	u, err := s.get(ctx, actor.UserID)
	if err != nil {
		return err
	}

	u.ProfilePhoto = nil
	u.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, u); err != nil {
		return err
	}

	s.auditor.Record(ctx, actor, model.ActionDeleteProfilePhoto, model.ResourceUser, u.ID.String(), nil)
	return nil
}

// RecentActivity returns the caller's latest audit entries.
func (s *Service) RecentActivity(ctx context.Context, actor model.Actor) ([]*model.AuditLog, error) {
	logs, err := s.auditor.RecentFor(ctx, actor.UserID, audit.DefaultRecentLimit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return logs, nil
}
