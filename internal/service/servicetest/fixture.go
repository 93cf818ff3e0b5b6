// Package servicetest wires in-memory dependencies for service tests.
package servicetest

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository/memory"
	"github.com/jwalitptl/medicare-api/internal/service/audit"
	"github.com/jwalitptl/medicare-api/pkg/auth"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
	"github.com/jwalitptl/medicare-api/pkg/security"
)

// Password satisfies the strength rules and is set on every fixture user.
const Password = "Str0ngPass"

// Mail is one captured notification.
type Mail struct {
	Kind string
	To   string
	Name string
}

// Mailer records notifications instead of sending them.
type Mailer struct {
	mu   sync.Mutex
	sent []Mail
	Err  error
}

func (m *Mailer) record(kind, to, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Mail{Kind: kind, To: to, Name: name})
	return m.Err
}

func (m *Mailer) SendRegistrationPending(_ context.Context, to, name string) error {
	return m.record("pending", to, name)
}

func (m *Mailer) SendDoctorApproved(_ context.Context, to, name string) error {
	return m.record("approved", to, name)
}

func (m *Mailer) SendDoctorRejected(_ context.Context, to, name string) error {
	return m.record("rejected", to, name)
}

// Sent returns a copy of every captured mail.
func (m *Mailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

type Fixture struct {
	Store   *memory.Store
	Auditor *audit.Service
	Hasher  security.PasswordHasher
	JWT     auth.JWTService
	Codec   *security.Codec
	Mailer  *Mailer
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

func New(t *testing.T) *Fixture {
	t.Helper()

	key := make([]byte, security.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	codec, err := security.NewCodec(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	jwtSvc, err := auth.NewJWTService("test-secret")
	require.NoError(t, err)

	store := memory.NewStore()
	m := metrics.NewNop()
	return &Fixture{
		Store:   store,
		Auditor: audit.NewService(store.Audit(), nil, m, zerolog.Nop()),
		Hasher:  security.NewBcryptHasher(4),
		JWT:     jwtSvc,
		Codec:   codec,
		Mailer:  &Mailer{},
		Metrics: m,
		Logger:  zerolog.Nop(),
	}
}

// CreateUser stores an active, verified user with Password.
func (f *Fixture) CreateUser(t *testing.T, role model.Role, email string, mutate ...func(*model.User)) *model.User {
	t.Helper()

	hash, err := f.Hasher.Hash(Password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := &model.User{
		ID:                 uuid.New(),
		Email:              email,
		PasswordHash:       hash,
		Role:               role,
		FullName:           string(role) + " " + email,
		IsVerified:         true,
		IsActive:           true,
		Allergies:          model.StringList{},
		ChronicConditions:  model.StringList{},
		CurrentMedications: model.StringList{},
		IsProfileComplete:  role != model.RolePatient,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, fn := range mutate {
		fn(u)
	}
	require.NoError(t, f.Store.Users().Create(context.Background(), u))
	return u
}

// Actor is the identity u acts under.
func Actor(u *model.User) model.Actor {
	return model.Actor{UserID: u.ID, Email: u.Email, Role: u.Role, IPAddress: "127.0.0.1"}
}

// Actions lists the audit actions recorded for userID, newest first.
func (f *Fixture) Actions(t *testing.T, userID uuid.UUID) []string {
	t.Helper()

	logs, err := f.Store.Audit().List(context.Background(), userID, 0)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}
