package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/service/servicetest"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

func assertCode(t *testing.T, err error, code apperrors.ErrorCode, msg string) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, msg, appErr.Message)
}

func TestGrantRevokeCycle(t *testing.T) {
	f := servicetest.New(t)
	svc := NewService(f.Store.Access(), f.Store.Users(), f.Auditor)
	ctx := context.Background()

	patient := f.CreateUser(t, model.RolePatient, "p@example.com")
	doctor := f.CreateUser(t, model.RoleDoctor, "d@example.com")
	actor := servicetest.Actor(patient)

	id, err := svc.Grant(ctx, actor, GrantInput{DoctorID: doctor.ID})
	require.NoError(t, err)

	perm, err := f.Store.Access().Get(ctx, patient.ID, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, id, perm.ID)
	assert.Equal(t, model.PermissionRead, perm.PermissionLevel)

	_, err = svc.Grant(ctx, actor, GrantInput{DoctorID: doctor.ID, PermissionLevel: "write"})
	assertCode(t, err, apperrors.ErrConflict, "Access already granted")

	require.NoError(t, svc.Revoke(ctx, actor, doctor.ID, nil))
	err = svc.Revoke(ctx, actor, doctor.ID, nil)
	assertCode(t, err, apperrors.ErrNotFound, "Permission not found")

	_, err = svc.Grant(ctx, actor, GrantInput{DoctorID: doctor.ID})
	require.NoError(t, err, "revoke then grant succeeds")

	assert.Equal(t, []string{model.ActionGrantAccess, model.ActionRevokeAccess, model.ActionGrantAccess}, f.Actions(t, patient.ID))
}

func TestGrantRules(t *testing.T) {
	f := servicetest.New(t)
	svc := NewService(f.Store.Access(), f.Store.Users(), f.Auditor)
	ctx := context.Background()

	patient := f.CreateUser(t, model.RolePatient, "p@example.com")
	other := f.CreateUser(t, model.RolePatient, "o@example.com")
	doctor := f.CreateUser(t, model.RoleDoctor, "d@example.com")
	admin := f.CreateUser(t, model.RoleAdmin, "a@example.com")

	_, err := svc.Grant(ctx, servicetest.Actor(other), GrantInput{DoctorID: doctor.ID, PatientID: &patient.ID})
	assertCode(t, err, apperrors.ErrForbidden, "Cannot grant access for other patients")

	err = svc.Revoke(ctx, servicetest.Actor(other), doctor.ID, &patient.ID)
	assertCode(t, err, apperrors.ErrForbidden, "Cannot revoke access for other patients")

	_, err = svc.Grant(ctx, servicetest.Actor(doctor), GrantInput{DoctorID: doctor.ID, PatientID: &patient.ID})
	assertCode(t, err, apperrors.ErrForbidden, "Only patients or admins can manage access")

	_, err = svc.Grant(ctx, servicetest.Actor(patient), GrantInput{DoctorID: uuid.New()})
	assertCode(t, err, apperrors.ErrNotFound, "Doctor not found")

	_, err = svc.Grant(ctx, servicetest.Actor(patient), GrantInput{DoctorID: other.ID})
	assertCode(t, err, apperrors.ErrNotFound, "Doctor not found")

	_, err = svc.Grant(ctx, servicetest.Actor(admin), GrantInput{DoctorID: doctor.ID, PatientID: &doctor.ID})
	assertCode(t, err, apperrors.ErrNotFound, "Patient not found")

	_, err = svc.Grant(ctx, servicetest.Actor(admin), GrantInput{DoctorID: doctor.ID, PatientID: &patient.ID})
	require.NoError(t, err)
	_, err = f.Store.Access().Get(ctx, patient.ID, doctor.ID)
	assert.NoError(t, err)
}

func TestListForAttachesCounterpart(t *testing.T) {
	f := servicetest.New(t)
	svc := NewService(f.Store.Access(), f.Store.Users(), f.Auditor)
	ctx := context.Background()

	patient := f.CreateUser(t, model.RolePatient, "p@example.com")
	doctor := f.CreateUser(t, model.RoleDoctor, "d@example.com")
	admin := f.CreateUser(t, model.RoleAdmin, "a@example.com")

	_, err := svc.Grant(ctx, servicetest.Actor(patient), GrantInput{DoctorID: doctor.ID})
	require.NoError(t, err)

	mine, err := svc.ListFor(ctx, servicetest.Actor(patient))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Doctor)
	assert.Nil(t, mine[0].Patient)
	assert.Equal(t, &model.PublicProfile{ID: doctor.ID, FullName: doctor.FullName, Email: doctor.Email}, mine[0].Doctor)

	theirs, err := svc.ListFor(ctx, servicetest.Actor(doctor))
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	require.NotNil(t, theirs[0].Patient)
	assert.Equal(t, patient.Email, theirs[0].Patient.Email)

	none, err := svc.ListFor(ctx, servicetest.Actor(admin))
	require.NoError(t, err)
	assert.Empty(t, none)
}
