package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxRecordSize is the largest accepted record upload.
const MaxRecordSize = 10 << 20

// DefaultFileType is used when an upload carries no content type.
const DefaultFileType = "application/octet-stream"

// Record is an uploaded medical file. The ciphertext is only ever read back
// through the download path.
type Record struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	UploadedBy       uuid.UUID `json:"uploaded_by"`
	FileName         string    `json:"file_name"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	EncryptedData    []byte    `json:"-"`
	EncryptionMethod string    `json:"encryption_method"`
	Description      string    `json:"description"`
	UploadedAt       time.Time `json:"uploaded_at"`
	IsDeleted        bool      `json:"is_deleted"`
}

// RecordFilter narrows record counts to non-deleted records.
type RecordFilter struct {
	PatientID     uuid.UUID
	UploadedSince time.Time
}

// Matches applies the filter to r in memory.
func (f RecordFilter) Matches(r *Record) bool {
	if r.IsDeleted {
		return false
	}
	if f.PatientID != uuid.Nil && r.PatientID != f.PatientID {
		return false
	}
	if !f.UploadedSince.IsZero() && r.UploadedAt.Before(f.UploadedSince) {
		return false
	}
	return true
}
