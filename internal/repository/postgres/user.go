package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type userRepository struct {
	BaseRepository
}

type userRow struct {
	ID                       uuid.UUID      `db:"id"`
	Email                    string         `db:"email"`
	PasswordHash             string         `db:"password_hash"`
	Role                     string         `db:"role"`
	FullName                 string         `db:"full_name"`
	Phone                    *string        `db:"phone"`
	NMCUID                   *string        `db:"nmc_uid"`
	IsVerified               bool           `db:"is_verified"`
	VerifiedAt               *time.Time     `db:"verified_at"`
	VerifiedBy               *uuid.UUID     `db:"verified_by"`
	IsActive                 bool           `db:"is_active"`
	ProfilePhoto             *string        `db:"profile_photo"`
	Gender                   *string        `db:"gender"`
	DateOfBirth              *string        `db:"date_of_birth"`
	BloodGroup               *string        `db:"blood_group"`
	Height                   *string        `db:"height"`
	Weight                   *string        `db:"weight"`
	Address                  *string        `db:"address"`
	EmergencyContact         *string        `db:"emergency_contact"`
	EmergencyContactName     *string        `db:"emergency_contact_name"`
	EmergencyContactRelation *string        `db:"emergency_contact_relation"`
	Allergies                pq.StringArray `db:"allergies"`
	ChronicConditions        pq.StringArray `db:"chronic_conditions"`
	CurrentMedications       pq.StringArray `db:"current_medications"`
	IsProfileComplete        bool           `db:"is_profile_complete"`
	CreatedAt                time.Time      `db:"created_at"`
	UpdatedAt                time.Time      `db:"updated_at"`
}

var userColumns = []string{
	"id", "email", "password_hash", "role", "full_name", "phone", "nmc_uid",
	"is_verified", "verified_at", "verified_by", "is_active", "profile_photo",
	"gender", "date_of_birth", "blood_group", "height", "weight", "address",
	"emergency_contact", "emergency_contact_name", "emergency_contact_relation",
	"allergies", "chronic_conditions", "current_medications",
	"is_profile_complete", "created_at", "updated_at",
}

var (
	userSelect = "SELECT " + strings.Join(userColumns, ", ") + " FROM users"
	userInsert = fmt.Sprintf("INSERT INTO users (%s) VALUES (:%s)",
		strings.Join(userColumns, ", "), strings.Join(userColumns, ", :"))
	userUpdate = buildUserUpdate()
)

func buildUserUpdate() string {
	sets := make([]string, 0, len(userColumns)-1)
	for _, col := range userColumns[1:] {
		sets = append(sets, col+" = :"+col)
	}
	return "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = :id"
}

func toUserRow(u *model.User) *userRow {
	return &userRow{
		ID:                       u.ID,
		Email:                    u.Email,
		PasswordHash:             u.PasswordHash,
		Role:                     string(u.Role),
		FullName:                 u.FullName,
		Phone:                    u.Phone,
		NMCUID:                   u.NMCUID,
		IsVerified:               u.IsVerified,
		VerifiedAt:               u.VerifiedAt,
		VerifiedBy:               u.VerifiedBy,
		IsActive:                 u.IsActive,
		ProfilePhoto:             u.ProfilePhoto,
		Gender:                   u.Gender,
		DateOfBirth:              u.DateOfBirth,
		BloodGroup:               u.BloodGroup,
		Height:                   (*string)(u.Height),
		Weight:                   (*string)(u.Weight),
		Address:                  u.Address,
		EmergencyContact:         u.EmergencyContact,
		EmergencyContactName:     u.EmergencyContactName,
		EmergencyContactRelation: u.EmergencyContactRelation,
		Allergies:                pq.StringArray(u.Allergies),
		ChronicConditions:        pq.StringArray(u.ChronicConditions),
		CurrentMedications:       pq.StringArray(u.CurrentMedications),
		IsProfileComplete:        u.IsProfileComplete,
		CreatedAt:                u.CreatedAt,
		UpdatedAt:                u.UpdatedAt,
	}
}

func (row *userRow) toModel() *model.User {
	return &model.User{
		ID:                       row.ID,
		Email:                    row.Email,
		PasswordHash:             row.PasswordHash,
		Role:                     model.Role(row.Role),
		FullName:                 row.FullName,
		Phone:                    row.Phone,
		NMCUID:                   row.NMCUID,
		IsVerified:               row.IsVerified,
		VerifiedAt:               row.VerifiedAt,
		VerifiedBy:               row.VerifiedBy,
		IsActive:                 row.IsActive,
		ProfilePhoto:             row.ProfilePhoto,
		Gender:                   row.Gender,
		DateOfBirth:              row.DateOfBirth,
		BloodGroup:               row.BloodGroup,
		Height:                   (*model.Measurement)(row.Height),
		Weight:                   (*model.Measurement)(row.Weight),
		Address:                  row.Address,
		EmergencyContact:         row.EmergencyContact,
		EmergencyContactName:     row.EmergencyContactName,
		EmergencyContactRelation: row.EmergencyContactRelation,
		Allergies:                model.StringList(row.Allergies),
		ChronicConditions:        model.StringList(row.ChronicConditions),
		CurrentMedications:       model.StringList(row.CurrentMedications),
		IsProfileComplete:        row.IsProfileComplete,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}
}

// userWhere renders the filter as a WHERE clause with positional args.
func userWhere(f model.UserFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	var args []interface{}

	if f.Role != "" {
		args = append(args, string(f.Role))
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if f.Verified != nil {
		args = append(args, *f.Verified)
		query += fmt.Sprintf(" AND is_verified = $%d", len(args))
	}
	if !f.CreatedSince.IsZero() {
		args = append(args, f.CreatedSince)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	return query, args
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.NamedExecContext(ctx, userInsert, toUserRow(user))
	return wrap(err, "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, userSelect+" WHERE id = $1", id); err != nil {
		return nil, wrap(err, "get user")
	}
	return row.toModel(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, userSelect+" WHERE lower(email) = lower($1)", email); err != nil {
		return nil, wrap(err, "get user by email")
	}
	return row.toModel(), nil
}

func (r *userRepository) ExistsByNMCUID(ctx context.Context, nmcUID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM users WHERE nmc_uid = $1)", nmcUID)
	return exists, wrap(err, "check nmc uid")
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.db.NamedExecContext(ctx, userUpdate, toUserRow(user))
	if err != nil {
		return wrap(err, "update user")
	}
	return expectOne(res, "update user")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return wrap(err, "delete user")
	}
	return expectOne(res, "delete user")
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	where, args := userWhere(filter)

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, userSelect+where+" ORDER BY created_at DESC", args...); err != nil {
		return nil, wrap(err, "list users")
	}

	users := make([]*model.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, filter model.UserFilter) (int64, error) {
	where, args := userWhere(filter)

	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users"+where, args...)
	return n, wrap(err, "count users")
}
