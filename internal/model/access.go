package model

import (
	"time"

	"github.com/google/uuid"
)

// PermissionRead is the default permission level of a grant.
const PermissionRead = "read"

// AccessPermission lets one doctor see one patient's records.
type AccessPermission struct {
	ID              uuid.UUID      `json:"id"`
	PatientID       uuid.UUID      `json:"patient_id"`
	DoctorID        uuid.UUID      `json:"doctor_id"`
	PermissionLevel string         `json:"permission_level"`
	GrantedAt       time.Time      `json:"granted_at"`
	Doctor          *PublicProfile `json:"doctor,omitempty"`
	Patient         *PublicProfile `json:"patient,omitempty"`
}
