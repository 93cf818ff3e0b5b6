package model

import "github.com/google/uuid"

// PatientProfile is a patient's account with the number of live records.
type PatientProfile struct {
	*User
	RecordCount int64 `json:"record_count"`
}

// HealthCard is the printable summary of a patient. Missing fields carry a
// placeholder instead of null.
type HealthCard struct {
	PatientID        uuid.UUID `json:"patient_id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	BloodGroup       string    `json:"blood_group"`
	DateOfBirth      string    `json:"date_of_birth"`
	Address          string    `json:"address"`
	EmergencyContact string    `json:"emergency_contact"`
	MemberSince      string    `json:"member_since"`
	TotalRecords     int64     `json:"total_records"`
	QRData           string    `json:"qr_data"`
}

// HealthCardQRPrefix precedes the patient id in a card's QR payload.
const HealthCardQRPrefix = "BHARATH_MEDICARE_PATIENT:"
