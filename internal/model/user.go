package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role is the account type of a user.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User represents an account. PasswordHash never leaves the server.
type User struct {
	ID                       uuid.UUID    `json:"id"`
	Email                    string       `json:"email"`
	PasswordHash             string       `json:"-"`
	Role                     Role         `json:"role"`
	FullName                 string       `json:"full_name"`
	Phone                    *string      `json:"phone"`
	NMCUID                   *string      `json:"nmc_uid"`
	IsVerified               bool         `json:"is_verified"`
	VerifiedAt               *time.Time   `json:"verified_at,omitempty"`
	VerifiedBy               *uuid.UUID   `json:"verified_by,omitempty"`
	IsActive                 bool         `json:"is_active"`
	ProfilePhoto             *string      `json:"profile_photo"`
	Gender                   *string      `json:"gender"`
	DateOfBirth              *string      `json:"date_of_birth"`
	BloodGroup               *string      `json:"blood_group"`
	Height                   *Measurement `json:"height"`
	Weight                   *Measurement `json:"weight"`
	Address                  *string      `json:"address"`
	EmergencyContact         *string      `json:"emergency_contact"`
	EmergencyContactName     *string      `json:"emergency_contact_name"`
	EmergencyContactRelation *string      `json:"emergency_contact_relation"`
	Allergies                StringList   `json:"allergies"`
	ChronicConditions        StringList   `json:"chronic_conditions"`
	CurrentMedications       StringList   `json:"current_medications"`
	IsProfileComplete        bool         `json:"is_profile_complete"`
	CreatedAt                time.Time    `json:"created_at"`
	UpdatedAt                time.Time    `json:"updated_at"`
}

// PublicProfile is the counterpart summary attached to access grants.
type PublicProfile struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

func (u *User) Public() *PublicProfile {
	return &PublicProfile{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

// ProfileComplete reports whether every required patient field is present.
// List fields count as present when non-nil, even if empty.
func ProfileComplete(u *User) bool {
	scalars := []*string{
		&u.FullName,
		u.Phone,
		u.Gender,
		u.DateOfBirth,
		u.Address,
		u.BloodGroup,
		u.EmergencyContactName,
		u.EmergencyContact,
		u.EmergencyContactRelation,
	}
	for _, v := range scalars {
		if v == nil || *v == "" {
			return false
		}
	}
	return u.Allergies != nil && u.ChronicConditions != nil
}

// RefreshCompleteness recomputes IsProfileComplete and reports whether it
// changed. Only patients have required fields; other roles are complete.
func (u *User) RefreshCompleteness() bool {
	complete := u.Role != RolePatient || ProfileComplete(u)
	changed := complete != u.IsProfileComplete
	u.IsProfileComplete = complete
	return changed
}

// UserFilter narrows user listings and counts. Zero fields match everything.
type UserFilter struct {
	Role         Role
	Verified     *bool
	CreatedSince time.Time
}

// Matches applies the filter to u in memory.
func (f UserFilter) Matches(u *User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.Verified != nil && u.IsVerified != *f.Verified {
		return false
	}
	if !f.CreatedSince.IsZero() && u.CreatedAt.Before(f.CreatedSince) {
		return false
	}
	return true
}

// StringList is a list field of the patient profile. Any JSON value that is
// not an array decodes to an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*l = StringList{}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(StringList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(item))
	}
	*l = out
	return nil
}

// Measurement holds height or weight as sent by the client, number or string.
type Measurement string

func (m *Measurement) UnmarshalJSON(data []byte) error {
	s, err := jsonText(data)
	if err != nil {
		return err
	}
	*m = Measurement(s)
	return nil
}

// jsonText returns a JSON string's contents, or the literal text of any
// other value.
func jsonText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(data), nil
}

// NMCUIDPattern is the accepted format of a doctor's registration number.
const NMCUIDPattern = `^\d{7}$`
