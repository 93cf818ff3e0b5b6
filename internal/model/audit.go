package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions.
const (
	ActionRegister           = "register"
	ActionLogin              = "login"
	ActionUpdateProfile      = "update_profile"
	ActionUploadProfilePhoto = "upload_profile_photo"
	ActionDeleteProfilePhoto = "delete_profile_photo"
	ActionUpload             = "upload"
	ActionView               = "view"
	ActionDownload           = "download"
	ActionDelete             = "delete"
	ActionGrantAccess        = "grant_access"
	ActionRevokeAccess       = "revoke_access"
	ActionToggleUserStatus   = "toggle_user_status"
	ActionDoctorApprove      = "doctor_approve"
	ActionDoctorReject       = "doctor_reject"
)

// Audit resource types.
const (
	ResourceUser             = "user"
	ResourceRecord           = "record"
	ResourceAccessPermission = "access_permission"
)

// AuditLog is an append-only entry of who did what to which resource.
type AuditLog struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Details      JSONMap   `json:"details,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
