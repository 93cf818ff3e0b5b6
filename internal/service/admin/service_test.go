package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/internal/model"
	authsvc "github.com/jwalitptl/medicare-api/internal/service/auth"
	"github.com/jwalitptl/medicare-api/internal/service/servicetest"
	apperrors "github.com/jwalitptl/medicare-api/pkg/errors"
)

func newService(f *servicetest.Fixture) *Service {
	return NewService(f.Store.Users(), f.Store.Records(), f.Auditor, f.Mailer, f.Logger)
}

func TestDoctorApprovalScenario(t *testing.T) {
	f := servicetest.New(t)
	ctx := context.Background()
	admin := f.CreateUser(t, model.RoleAdmin, "admin@example.com")
	auth := authsvc.NewService(f.Store.Users(), f.Hasher, f.JWT, f.Mailer, f.Auditor, f.Metrics, f.Logger)
	svc := newService(f)

	nmc := "1234567"
	doctor, err := auth.Register(ctx, model.RegisterRequest{
		Email: "dr.rao@example.com", Password: servicetest.Password, FullName: "Rao",
		Role: model.RoleDoctor, NMCUID: &nmc,
	}, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, doctor.IsVerified)

	login := model.LoginRequest{Email: "dr.rao@example.com", Password: servicetest.Password}
	_, err = auth.Login(ctx, login, "10.0.0.1")
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))

	pending, err := svc.PendingDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, doctor.ID, pending[0].ID)

	require.NoError(t, svc.VerifyDoctor(ctx, servicetest.Actor(admin), doctor.ID, VerifyApprove))

	res, err := auth.Login(ctx, login, "10.0.0.1")
	require.NoError(t, err)
	claims, err := f.JWT.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "doctor", claims.Role)

	stored, err := f.Store.Users().GetByID(ctx, doctor.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.VerifiedBy)
	assert.Equal(t, admin.ID, *stored.VerifiedBy)
	assert.NotNil(t, stored.VerifiedAt)

	sent := f.Mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "pending", sent[0].Kind)
	assert.Equal(t, servicetest.Mail{Kind: "approved", To: "dr.rao@example.com", Name: "Rao"}, sent[1])
	assert.Equal(t, []string{model.ActionDoctorApprove}, f.Actions(t, admin.ID))
}

func TestRejectDoctorRemovesAccount(t *testing.T) {
	f := servicetest.New(t)
	ctx := context.Background()
	admin := f.CreateUser(t, model.RoleAdmin, "admin@example.com")
	doctor := f.CreateUser(t, model.RoleDoctor, "d@example.com", func(u *model.User) { u.IsVerified = false })
	f.Mailer.Err = errors.New("smtp down")
	svc := newService(f)

	require.NoError(t, svc.VerifyDoctor(ctx, servicetest.Actor(admin), doctor.ID, VerifyReject), "mail failure is swallowed")

	_, err := f.Store.Users().GetByID(ctx, doctor.ID)
	assert.Error(t, err)
	assert.Equal(t, "rejected", f.Mailer.Sent()[0].Kind)
	assert.Equal(t, []string{model.ActionDoctorReject}, f.Actions(t, admin.ID))
}

func TestVerifyDoctorErrors(t *testing.T) {
	f := servicetest.New(t)
	ctx := context.Background()
	admin := servicetest.Actor(f.CreateUser(t, model.RoleAdmin, "admin@example.com"))
	patient := f.CreateUser(t, model.RolePatient, "p@example.com")
	svc := newService(f)

	cases := []struct {
		name   string
		id     uuid.UUID
		action VerifyAction
		code   apperrors.ErrorCode
		msg    string
	}{
		{"bad action", patient.ID, "maybe", apperrors.ErrBadRequest, "Invalid action. Must be approve or reject"},
		{"unknown id", uuid.New(), VerifyApprove, apperrors.ErrNotFound, "Doctor not found"},
		{"not a doctor", patient.ID, VerifyReject, apperrors.ErrBadRequest, "User is not a doctor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.VerifyDoctor(ctx, admin, tc.id, tc.action)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.msg, appErr.Message)
		})
	}
	assert.Empty(t, f.Mailer.Sent())
}

func TestToggleActive(t *testing.T) {
	f := servicetest.New(t)
	ctx := context.Background()
	admin := servicetest.Actor(f.CreateUser(t, model.RoleAdmin, "admin@example.com"))
	patient := f.CreateUser(t, model.RolePatient, "p@example.com")
	svc := newService(f)

	active, err := svc.ToggleActive(ctx, admin, patient.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = svc.ToggleActive(ctx, admin, patient.ID)
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.ToggleActive(ctx, admin, uuid.New())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
	assert.Equal(t, []string{model.ActionToggleUserStatus, model.ActionToggleUserStatus}, f.Actions(t, admin.UserID))
}

func TestStatsAndAuditLogs(t *testing.T) {
	f := servicetest.New(t)
	ctx := context.Background()
	old := time.Now().Add(-30 * 24 * time.Hour)

	admin := f.CreateUser(t, model.RoleAdmin, "admin@example.com", func(u *model.User) { u.CreatedAt = old })
	patient := f.CreateUser(t, model.RolePatient, "p@example.com")
	f.CreateUser(t, model.RoleDoctor, "d1@example.com")
	f.CreateUser(t, model.RoleDoctor, "d2@example.com", func(u *model.User) { u.IsVerified = false })

	for i, uploaded := range []time.Time{time.Now(), old, time.Now()} {
		require.NoError(t, f.Store.Records().Create(ctx, &model.Record{
			ID: uuid.New(), PatientID: patient.ID, UploadedAt: uploaded, IsDeleted: i == 2,
		}))
	}

	svc := newService(f)
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.UserStats{Total: 4, Patients: 1, Doctors: 1, PendingDoctors: 1}, stats.Users)
	assert.EqualValues(t, 2, stats.Records.Active)
	assert.EqualValues(t, 1, stats.RecentActivity.UploadsLast7Days)
	assert.EqualValues(t, 3, stats.RecentActivity.RegistrationsLast7Days)

	f.Auditor.Record(ctx, servicetest.Actor(admin), model.ActionLogin, model.ResourceUser, admin.ID.String(), nil)
	f.Auditor.Record(ctx, servicetest.Actor(patient), model.ActionLogin, model.ResourceUser, patient.ID.String(), nil)
	logs, err := svc.AuditLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, patient.ID, logs[0].UserID)
}
