package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("MEDICARE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MEDICARE_TEST_POSTGRES_DSN not set")
	}

	db, err := NewDB(Config{DSN: dsn})
	require.NoError(t, err)

	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	for _, table := range []string{"users", "records", "access_permissions", "audit_logs"} {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestUserQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	nmc := "7654321"
	weight := model.Measurement("64.5")
	doctor := &model.User{
		ID: uuid.New(), Email: "Doc@Example.com", PasswordHash: "hash", Role: model.RoleDoctor,
		FullName: "Dr Iyer", NMCUID: &nmc, Weight: &weight, IsActive: true,
		ChronicConditions: model.StringList{}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Users().Create(ctx, doctor))

	got, err := store.Users().GetByEmail(ctx, "doc@example.com")
	require.NoError(t, err)
	assert.Equal(t, doctor.ID, got.ID)
	assert.Equal(t, "64.5", string(*got.Weight))
	assert.Nil(t, got.Allergies)
	assert.NotNil(t, got.ChronicConditions)

	clash := &model.User{ID: uuid.New(), Email: "doc@EXAMPLE.com", Role: model.RolePatient, CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, store.Users().Create(ctx, clash), repository.ErrDuplicate)

	exists, err := store.Users().ExistsByNMCUID(ctx, nmc)
	require.NoError(t, err)
	assert.True(t, exists)

	admin := uuid.New()
	verifiedAt := now.Add(time.Minute)
	got.IsVerified = true
	got.VerifiedAt = &verifiedAt
	got.VerifiedBy = &admin
	require.NoError(t, store.Users().Update(ctx, got))

	verified := true
	n, err := store.Users().Count(ctx, model.UserFilter{Role: model.RoleDoctor, Verified: &verified})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	missing := &model.User{ID: uuid.New(), Email: "ghost@example.com", CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, store.Users().Update(ctx, missing), repository.ErrNotFound)
}

func TestRecordAndAudit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	patientID := uuid.New()

	rec := &model.Record{
		ID: uuid.New(), PatientID: patientID, UploadedBy: patientID, FileName: "x-ray.png",
		FileType: "image/png", FileSize: 3, EncryptedData: []byte{9, 9, 9}, EncryptionMethod: "AES-256-GCM",
		UploadedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Records().Create(ctx, rec))

	list, err := store.Records().ListByPatient(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].EncryptedData)

	require.NoError(t, store.Records().SoftDelete(ctx, rec.ID))
	assert.ErrorIs(t, store.Records().SoftDelete(ctx, rec.ID), repository.ErrNotFound)

	require.NoError(t, store.Audit().Create(ctx, &model.AuditLog{
		ID: uuid.New(), UserID: patientID, Action: model.ActionUpload, ResourceType: model.ResourceRecord,
		ResourceID: rec.ID.String(), Details: model.JSONMap{"file_name": "x-ray.png"}, Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, store.Audit().Create(ctx, &model.AuditLog{
		ID: uuid.New(), UserID: patientID, Action: model.ActionDelete, ResourceType: model.ResourceRecord,
		Timestamp: time.Now().UTC().Add(time.Second),
	}))

	logs, err := store.Audit().List(ctx, patientID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionDelete, logs[0].Action)
	assert.Equal(t, "x-ray.png", logs[1].Details["file_name"])
}
