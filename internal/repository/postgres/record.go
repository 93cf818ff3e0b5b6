package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type recordRepository struct {
	BaseRepository
}

type recordRow struct {
	ID               uuid.UUID `db:"id"`
	PatientID        uuid.UUID `db:"patient_id"`
	UploadedBy       uuid.UUID `db:"uploaded_by"`
	FileName         string    `db:"file_name"`
	FileType         string    `db:"file_type"`
	FileSize         int64     `db:"file_size"`
	EncryptedData    []byte    `db:"encrypted_data"`
	EncryptionMethod string    `db:"encryption_method"`
	Description      string    `db:"description"`
	UploadedAt       time.Time `db:"uploaded_at"`
	IsDeleted        bool      `db:"is_deleted"`
}

const (
	recordMetaColumns = `id, patient_id, uploaded_by, file_name, file_type, file_size,
		encryption_method, description, uploaded_at, is_deleted`
	recordInsert = `INSERT INTO records (
			id, patient_id, uploaded_by, file_name, file_type, file_size,
			encrypted_data, encryption_method, description, uploaded_at, is_deleted
		) VALUES (
			:id, :patient_id, :uploaded_by, :file_name, :file_type, :file_size,
			:encrypted_data, :encryption_method, :description, :uploaded_at, :is_deleted
		)`
)

func (row *recordRow) toModel() *model.Record {
	return &model.Record{
		ID:               row.ID,
		PatientID:        row.PatientID,
		UploadedBy:       row.UploadedBy,
		FileName:         row.FileName,
		FileType:         row.FileType,
		FileSize:         row.FileSize,
		EncryptedData:    row.EncryptedData,
		EncryptionMethod: row.EncryptionMethod,
		Description:      row.Description,
		UploadedAt:       row.UploadedAt,
		IsDeleted:        row.IsDeleted,
	}
}

func (r *recordRepository) Create(ctx context.Context, rec *model.Record) error {
	row := recordRow{
		ID:               rec.ID,
		PatientID:        rec.PatientID,
		UploadedBy:       rec.UploadedBy,
		FileName:         rec.FileName,
		FileType:         rec.FileType,
		FileSize:         rec.FileSize,
		EncryptedData:    rec.EncryptedData,
		EncryptionMethod: rec.EncryptionMethod,
		Description:      rec.Description,
		UploadedAt:       rec.UploadedAt,
		IsDeleted:        rec.IsDeleted,
	}
	_, err := r.db.NamedExecContext(ctx, recordInsert, row)
	return wrap(err, "create record")
}

func (r *recordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	var row recordRow
	query := "SELECT " + recordMetaColumns + ", encrypted_data FROM records WHERE id = $1"
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, wrap(err, "get record")
	}
	return row.toModel(), nil
}

func (r *recordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Record, error) {
	query := "SELECT " + recordMetaColumns + ` FROM records
		WHERE patient_id = $1 AND is_deleted = FALSE
		ORDER BY uploaded_at DESC`

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, wrap(err, "list records")
	}

	records := make([]*model.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toModel())
	}
	return records, nil
}

func (r *recordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE records SET is_deleted = TRUE WHERE id = $1 AND is_deleted = FALSE", id)
	if err != nil {
		return wrap(err, "delete record")
	}
	return expectOne(res, "delete record")
}

func (r *recordRepository) Count(ctx context.Context, filter model.RecordFilter) (int64, error) {
	query := "SELECT COUNT(*) FROM records WHERE is_deleted = FALSE"
	var args []interface{}

	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if !filter.UploadedSince.IsZero() {
		args = append(args, filter.UploadedSince)
		query += fmt.Sprintf(" AND uploaded_at >= $%d", len(args))
	}

	var n int64
	err := r.db.GetContext(ctx, &n, query, args...)
	return n, wrap(err, "count records")
}
