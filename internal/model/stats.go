package model

// Stats is the admin dashboard summary.
type Stats struct {
	Users          UserStats     `json:"users"`
	Records        RecordStats   `json:"records"`
	RecentActivity ActivityStats `json:"recent_activity"`
}

type UserStats struct {
	Total          int64 `json:"total"`
	Patients       int64 `json:"patients"`
	Doctors        int64 `json:"doctors"`
	PendingDoctors int64 `json:"pending_doctors"`
}

type RecordStats struct {
	Active int64 `json:"active"`
}

type ActivityStats struct {
	UploadsLast7Days       int64 `json:"uploads_last_7_days"`
	RegistrationsLast7Days int64 `json:"registrations_last_7_days"`
}
