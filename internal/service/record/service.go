// Package record implements the medical record lifecycle: encrypted upload,
// listing, viewing, download and soft delete.
package record

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
	"github.com/jwalitptl/medicare-api/pkg/security"
)

// MsgForeignPatient rejects a patient uploading for someone else.
const MsgForeignPatient = "Cannot upload for other patients"

const (
	msgAccessDenied = "Access denied"
	msgTooLarge     = "File size must be less than 10MB"
)

// Codec seals and opens record payloads.
type Codec interface {
	Encrypt(plaintext []byte) (security.Sealed, error)
	Decrypt(sealed security.Sealed) ([]byte, error)
}

// UploadInput describes one uploaded file. A nil PatientID means the caller.
type UploadInput struct {
	PatientID   *uuid.UUID
	FileName    string
	FileType    string
	Description string
	Data        []byte
}

// Download is a decrypted record ready to be streamed.
type Download struct {
	FileName string
	FileType string
	Data     []byte
}

type Service struct {
	records repository.RecordRepository
	users   repository.UserRepository
	access  repository.AccessRepository
	codec   Codec
	auditor *audit.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(store repository.Store, codec Codec, auditor *audit.Service, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		records: store.Records(),
		users:   store.Users(),
		access:  store.Access(),
		codec:   codec,
		auditor: auditor,
		metrics: m,
		logger:  logger.With().Str("component", "record").Logger(),
		now:     time.Now,
	}
}

// Upload encrypts and stores a file for the target patient and returns the
// new record id.
func (s *Service) Upload(ctx context.Context, actor model.Actor, in UploadInput) (uuid.UUID, error) {
	patientID := actor.UserID
	if in.PatientID != nil {
		patientID = *in.PatientID
	}
	if !actor.Owns(patientID) && actor.Role == model.RolePatient {
		return uuid.Nil, apperrors.Forbidden(MsgForeignPatient)
	}

	if len(in.Data) > model.MaxRecordSize {
		s.metrics.RecordUploads.WithLabelValues("rejected").Inc()
		return uuid.Nil, apperrors.BadRequest(msgTooLarge, nil)
	}

	if !actor.Owns(patientID) {
		if err := s.requirePatient(ctx, patientID); err != nil {
			return uuid.Nil, err
		}
	}
	if err := s.authorize(ctx, actor, patientID); err != nil {
		return uuid.Nil, err
	}

	sealed, err := s.codec.Encrypt(in.Data)
	if err != nil {
		s.metrics.RecordUploads.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("failed to encrypt record")
		return uuid.Nil, apperrors.Internal(err)
	}

	fileType := in.FileType
	if fileType == "" {
		fileType = model.DefaultFileType
	}

	rec := &model.Record{
		ID:               uuid.New(),
		PatientID:        patientID,
		UploadedBy:       actor.UserID,
		FileName:         in.FileName,
		FileType:         fileType,
		FileSize:         int64(len(in.Data)),
		EncryptedData:    sealed.Ciphertext,
		EncryptionMethod: sealed.Method,
		Description:      in.Description,
		UploadedAt:       s.now().UTC(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		s.metrics.RecordUploads.WithLabelValues("error").Inc()
		return uuid.Nil, apperrors.Internal(err)
	}

	s.metrics.RecordUploads.WithLabelValues("ok").Inc()
	s.metrics.RecordUploadSize.Observe(float64(rec.FileSize))

	s.auditor.Record(ctx, actor, model.ActionUpload, model.ResourceRecord, rec.ID.String(), model.JSONMap{
		"file_name":  rec.FileName,
		"file_size":  rec.FileSize,
		"patient_id": patientID.String(),
	})
	return rec.ID, nil
}

// ListMine returns the caller's live records, newest first.
func (s *Service) ListMine(ctx context.Context, actor model.Actor) ([]*model.Record, error) {
	records, err := s.records.ListByPatient(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Record, error) {
	rec, err := s.live(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, actor, model.ActionView, model.ResourceRecord, rec.ID.String(), nil)
	rec.EncryptedData = nil
	return rec, nil
}

// Download decrypts the record. A payload that fails to decrypt is an error,
// never partial data.
func (s *Service) Download(ctx context.Context, actor model.Actor, id uuid.UUID) (*Download, error) {
	rec, err := s.live(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	data, err := s.codec.Decrypt(security.Sealed{Ciphertext: rec.EncryptedData, Method: rec.EncryptionMethod})
	if err != nil {
		s.logger.Error().Err(err).Str("record_id", id.String()).Msg("failed to decrypt record")
		return nil, &apperrors.AppError{Code: apperrors.ErrInternal, Message: "Download failed", Err: err}
	}

	s.auditor.Record(ctx, actor, model.ActionDownload, model.ResourceRecord, rec.ID.String(), nil)
	return &Download{FileName: rec.FileName, FileType: rec.FileType, Data: data}, nil
}

// SoftDelete authorizes against the stored record first, so a stranger gets
// Forbidden even for a record that is already deleted.
func (s *Service) SoftDelete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	rec, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, rec.PatientID); err != nil {
		return err
	}
	if rec.IsDeleted {
		return apperrors.NotFound("Record", nil)
	}

	if err := s.records.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Record", err)
		}
		return apperrors.Internal(err)
	}

	s.auditor.Record(ctx, actor, model.ActionDelete, model.ResourceRecord, id.String(), nil)
	return nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Record", err)
		}
		return nil, apperrors.Internal(err)
	}
	return rec, nil
}

// live loads a non-deleted record the actor may read.
func (s *Service) live(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Record, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsDeleted {
		return nil, apperrors.NotFound("Record", nil)
	}
	if err := s.authorize(ctx, actor, rec.PatientID); err != nil {
		return nil, err
	}
	return rec, nil
}

// authorize admits the owning patient, admins, and doctors holding a grant.
func (s *Service) authorize(ctx context.Context, actor model.Actor, patientID uuid.UUID) error {
	if actor.Owns(patientID) || actor.Role == model.RoleAdmin {
		return nil
	}
	if actor.Role != model.RoleDoctor {
		return apperrors.Forbidden(msgAccessDenied)
	}

	_, err := s.access.Get(ctx, patientID, actor.UserID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.Forbidden(msgAccessDenied)
	default:
		return apperrors.Internal(err)
	}
}

func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Patient", err)
		}
		return apperrors.Internal(err)
	}
	if u.Role != model.RolePatient {
		return apperrors.NotFound("Patient", nil)
	}
	return nil
}
