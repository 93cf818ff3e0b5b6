package audit

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository/memory"
	"github.com/jwalitptl/medicare-api/pkg/messaging"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	messages []messaging.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingRepo struct{}

func (failingRepo) Create(context.Context, *model.AuditLog) error { return errors.New("disk full") }
func (failingRepo) List(context.Context, uuid.UUID, int) ([]*model.AuditLog, error) {
	return nil, errors.New("disk full")
}

func TestRecordPersistsAndPublishes(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	svc := NewService(store.Audit(), pub, metrics.NewNop(), zerolog.Nop())

	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	actor := model.Actor{UserID: uuid.New(), Role: model.RolePatient, IPAddress: "10.0.0.7"}
	svc.Record(context.Background(), actor, model.ActionUpload, model.ResourceRecord, "rec-1", model.JSONMap{"size": 12})

	logs, err := svc.RecentFor(context.Background(), actor.UserID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionUpload, logs[0].Action)
	assert.Equal(t, "rec-1", logs[0].ResourceID)
	assert.Equal(t, "10.0.0.7", logs[0].IPAddress)
	assert.Equal(t, fixed, logs[0].Timestamp)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, Channel, pub.channels[0])
	assert.Equal(t, "audit.upload", pub.messages[0].Type)
}

func TestRecordSwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	pub := &recordingPublisher{}
	svc := NewService(failingRepo{}, pub, metrics.NewNop(), zerolog.New(&buf))

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), model.Actor{UserID: uuid.New()}, model.ActionLogin, model.ResourceUser, "", nil)
	})
	assert.Contains(t, buf.String(), "failed to write audit log")
	assert.Empty(t, pub.messages, "nothing is published for an unpersisted entry")
}

func TestRecordIgnoresPublishFailures(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Audit(), &recordingPublisher{err: errors.New("redis down")}, metrics.NewNop(), zerolog.Nop())

	actor := model.Actor{UserID: uuid.New()}
	svc.Record(context.Background(), actor, model.ActionLogin, model.ResourceUser, actor.UserID.String(), nil)

	logs, err := svc.RecentFor(context.Background(), actor.UserID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRecentForAndLatestLimits(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Audit(), nil, metrics.NewNop(), zerolog.Nop())
	ctx := context.Background()

	start := time.Now()
	tick := 0
	svc.now = func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	}

	alice, bob := model.Actor{UserID: uuid.New()}, model.Actor{UserID: uuid.New()}
	for i := 0; i < 60; i++ {
		svc.Record(ctx, alice, model.ActionView, model.ResourceRecord, "", nil)
	}
	for i := 0; i < 50; i++ {
		svc.Record(ctx, bob, model.ActionLogin, model.ResourceUser, "", nil)
	}

	recent, err := svc.RecentFor(ctx, alice.UserID, 0)
	require.NoError(t, err)
	assert.Len(t, recent, DefaultRecentLimit)
	assert.True(t, recent[0].Timestamp.After(recent[len(recent)-1].Timestamp))

	latest, err := svc.Latest(ctx, 0)
	require.NoError(t, err)
	require.Len(t, latest, DefaultLatestLimit)
	assert.Equal(t, bob.UserID, latest[0].UserID)
}
