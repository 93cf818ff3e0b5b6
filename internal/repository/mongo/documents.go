package mongo

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type userDocument struct {
	ID                       string     `bson:"_id"`
	Email                    string     `bson:"email"`
	PasswordHash             string     `bson:"password_hash"`
	Role                     string     `bson:"role"`
	FullName                 string     `bson:"full_name"`
	Phone                    *string    `bson:"phone"`
	NMCUID                   *string    `bson:"nmc_uid"`
	IsVerified               bool       `bson:"is_verified"`
	VerifiedAt               *time.Time `bson:"verified_at,omitempty"`
	VerifiedBy               *string    `bson:"verified_by,omitempty"`
	IsActive                 bool       `bson:"is_active"`
	ProfilePhoto             *string    `bson:"profile_photo"`
	Gender                   *string    `bson:"gender"`
	DateOfBirth              *string    `bson:"date_of_birth"`
	BloodGroup               *string    `bson:"blood_group"`
	Height                   *string    `bson:"height"`
	Weight                   *string    `bson:"weight"`
	Address                  *string    `bson:"address"`
	EmergencyContact         *string    `bson:"emergency_contact"`
	EmergencyContactName     *string    `bson:"emergency_contact_name"`
	EmergencyContactRelation *string    `bson:"emergency_contact_relation"`
	Allergies                []string   `bson:"allergies"`
	ChronicConditions        []string   `bson:"chronic_conditions"`
	CurrentMedications       []string   `bson:"current_medications"`
	IsProfileComplete        bool       `bson:"is_profile_complete"`
	CreatedAt                time.Time  `bson:"created_at"`
	UpdatedAt                time.Time  `bson:"updated_at"`
}

func toUserDocument(u *model.User) *userDocument {
	doc := &userDocument{
		ID:                       u.ID.String(),
		Email:                    u.Email,
		PasswordHash:             u.PasswordHash,
		Role:                     string(u.Role),
		FullName:                 u.FullName,
		Phone:                    u.Phone,
		NMCUID:                   u.NMCUID,
		IsVerified:               u.IsVerified,
		VerifiedAt:               u.VerifiedAt,
		IsActive:                 u.IsActive,
		ProfilePhoto:             u.ProfilePhoto,
		Gender:                   u.Gender,
		DateOfBirth:              u.DateOfBirth,
		BloodGroup:               u.BloodGroup,
		Height:                   measurementToString(u.Height),
		Weight:                   measurementToString(u.Weight),
		Address:                  u.Address,
		EmergencyContact:         u.EmergencyContact,
		EmergencyContactName:     u.EmergencyContactName,
		EmergencyContactRelation: u.EmergencyContactRelation,
		Allergies:                u.Allergies,
		ChronicConditions:        u.ChronicConditions,
		CurrentMedications:       u.CurrentMedications,
		IsProfileComplete:        u.IsProfileComplete,
		CreatedAt:                u.CreatedAt,
		UpdatedAt:                u.UpdatedAt,
	}
	if u.VerifiedBy != nil {
		s := u.VerifiedBy.String()
		doc.VerifiedBy = &s
	}
	return doc
}

func (d *userDocument) toModel() (*model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:                       id,
		Email:                    d.Email,
		PasswordHash:             d.PasswordHash,
		Role:                     model.Role(d.Role),
		FullName:                 d.FullName,
		Phone:                    d.Phone,
		NMCUID:                   d.NMCUID,
		IsVerified:               d.IsVerified,
		VerifiedAt:               d.VerifiedAt,
		IsActive:                 d.IsActive,
		ProfilePhoto:             d.ProfilePhoto,
		Gender:                   d.Gender,
		DateOfBirth:              d.DateOfBirth,
		BloodGroup:               d.BloodGroup,
		Height:                   stringToMeasurement(d.Height),
		Weight:                   stringToMeasurement(d.Weight),
		Address:                  d.Address,
		EmergencyContact:         d.EmergencyContact,
		EmergencyContactName:     d.EmergencyContactName,
		EmergencyContactRelation: d.EmergencyContactRelation,
		Allergies:                d.Allergies,
		ChronicConditions:        d.ChronicConditions,
		CurrentMedications:       d.CurrentMedications,
		IsProfileComplete:        d.IsProfileComplete,
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
	if d.VerifiedBy != nil {
		if by, err := uuid.Parse(*d.VerifiedBy); err == nil {
			u.VerifiedBy = &by
		}
	}
	return u, nil
}

func measurementToString(m *model.Measurement) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

func stringToMeasurement(s *string) *model.Measurement {
	if s == nil {
		return nil
	}
	m := model.Measurement(*s)
	return &m
}

type recordDocument struct {
	ID               string    `bson:"_id"`
	PatientID        string    `bson:"patient_id"`
	UploadedBy       string    `bson:"uploaded_by"`
	FileName         string    `bson:"file_name"`
	FileType         string    `bson:"file_type"`
	FileSize         int64     `bson:"file_size"`
	EncryptedData    []byte    `bson:"encrypted_data,omitempty"`
	EncryptionMethod string    `bson:"encryption_method"`
	Description      string    `bson:"description"`
	UploadedAt       time.Time `bson:"uploaded_at"`
	IsDeleted        bool      `bson:"is_deleted"`
}

func toRecordDocument(r *model.Record) *recordDocument {
	return &recordDocument{
		ID:               r.ID.String(),
		PatientID:        r.PatientID.String(),
		UploadedBy:       r.UploadedBy.String(),
		FileName:         r.FileName,
		FileType:         r.FileType,
		FileSize:         r.FileSize,
		EncryptedData:    r.EncryptedData,
		EncryptionMethod: r.EncryptionMethod,
		Description:      r.Description,
		UploadedAt:       r.UploadedAt,
		IsDeleted:        r.IsDeleted,
	}
}

func (d *recordDocument) toModel() (*model.Record, error) {
	ids, err := parseIDs(d.ID, d.PatientID, d.UploadedBy)
	if err != nil {
		return nil, err
	}
	return &model.Record{
		ID:               ids[0],
		PatientID:        ids[1],
		UploadedBy:       ids[2],
		FileName:         d.FileName,
		FileType:         d.FileType,
		FileSize:         d.FileSize,
		EncryptedData:    d.EncryptedData,
		EncryptionMethod: d.EncryptionMethod,
		Description:      d.Description,
		UploadedAt:       d.UploadedAt,
		IsDeleted:        d.IsDeleted,
	}, nil
}

type accessDocument struct {
	ID              string    `bson:"_id"`
	PatientID       string    `bson:"patient_id"`
	DoctorID        string    `bson:"doctor_id"`
	PermissionLevel string    `bson:"permission_level"`
	GrantedAt       time.Time `bson:"granted_at"`
}

func toAccessDocument(p *model.AccessPermission) *accessDocument {
	return &accessDocument{
		ID:              p.ID.String(),
		PatientID:       p.PatientID.String(),
		DoctorID:        p.DoctorID.String(),
		PermissionLevel: p.PermissionLevel,
		GrantedAt:       p.GrantedAt,
	}
}

func (d *accessDocument) toModel() (*model.AccessPermission, error) {
	ids, err := parseIDs(d.ID, d.PatientID, d.DoctorID)
	if err != nil {
		return nil, err
	}
	return &model.AccessPermission{
		ID:              ids[0],
		PatientID:       ids[1],
		DoctorID:        ids[2],
		PermissionLevel: d.PermissionLevel,
		GrantedAt:       d.GrantedAt,
	}, nil
}

type auditDocument struct {
	ID           string                 `bson:"_id"`
	UserID       string                 `bson:"user_id"`
	Action       string                 `bson:"action"`
	ResourceType string                 `bson:"resource_type"`
	ResourceID   string                 `bson:"resource_id,omitempty"`
	IPAddress    string                 `bson:"ip_address,omitempty"`
	Details      map[string]interface{} `bson:"details,omitempty"`
	Timestamp    time.Time              `bson:"timestamp"`
}

func toAuditDocument(l *model.AuditLog) *auditDocument {
	return &auditDocument{
		ID:           l.ID.String(),
		UserID:       l.UserID.String(),
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		IPAddress:    l.IPAddress,
		Details:      l.Details,
		Timestamp:    l.Timestamp,
	}
}

func (d *auditDocument) toModel() (*model.AuditLog, error) {
	ids, err := parseIDs(d.ID, d.UserID)
	if err != nil {
		return nil, err
	}
	return &model.AuditLog{
		ID:           ids[0],
		UserID:       ids[1],
		Action:       d.Action,
		ResourceType: d.ResourceType,
		ResourceID:   d.ResourceID,
		IPAddress:    d.IPAddress,
		Details:      d.Details,
		Timestamp:    d.Timestamp,
	}, nil
}

func parseIDs(raw ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
