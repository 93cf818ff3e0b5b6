package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type accessRepository struct {
	BaseRepository
}

const accessColumns = "id, patient_id, doctor_id, permission_level, granted_at"

type accessRow struct {
	ID              uuid.UUID `db:"id"`
	PatientID       uuid.UUID `db:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id"`
	PermissionLevel string    `db:"permission_level"`
	GrantedAt       time.Time `db:"granted_at"`
}

func (row *accessRow) toModel() *model.AccessPermission {
	return &model.AccessPermission{
		ID:              row.ID,
		PatientID:       row.PatientID,
		DoctorID:        row.DoctorID,
		PermissionLevel: row.PermissionLevel,
		GrantedAt:       row.GrantedAt,
	}
}

func (r *accessRepository) Create(ctx context.Context, perm *model.AccessPermission) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO access_permissions ("+accessColumns+") VALUES ($1, $2, $3, $4, $5)",
		perm.ID, perm.PatientID, perm.DoctorID, perm.PermissionLevel, perm.GrantedAt,
	)
	return wrap(err, "grant access")
}

func (r *accessRepository) Get(ctx context.Context, patientID, doctorID uuid.UUID) (*model.AccessPermission, error) {
	var row accessRow
	query := "SELECT " + accessColumns + " FROM access_permissions WHERE patient_id = $1 AND doctor_id = $2"
	if err := r.db.GetContext(ctx, &row, query, patientID, doctorID); err != nil {
		return nil, wrap(err, "get access")
	}
	return row.toModel(), nil
}

func (r *accessRepository) Delete(ctx context.Context, patientID, doctorID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM access_permissions WHERE patient_id = $1 AND doctor_id = $2", patientID, doctorID)
	if err != nil {
		return wrap(err, "revoke access")
	}
	return expectOne(res, "revoke access")
}

func (r *accessRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AccessPermission, error) {
	return r.list(ctx, "patient_id", patientID)
}

func (r *accessRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AccessPermission, error) {
	return r.list(ctx, "doctor_id", doctorID)
}

// list filters on column, which is always one of the two fixed id columns.
func (r *accessRepository) list(ctx context.Context, column string, id uuid.UUID) ([]*model.AccessPermission, error) {
	query := "SELECT " + accessColumns + " FROM access_permissions WHERE " + column + " = $1 ORDER BY granted_at DESC"

	var rows []accessRow
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, wrap(err, "list access")
	}

	perms := make([]*model.AccessPermission, 0, len(rows))
	for i := range rows {
		perms = append(perms, rows[i].toModel())
	}
	return perms, nil
}
