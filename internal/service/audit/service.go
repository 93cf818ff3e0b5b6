package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
	"github.com/jwalitptl/medicare-api/pkg/messaging"
	"github.com/jwalitptl/medicare-api/pkg/metrics"
)

// Channel is where every persisted entry is published.
const Channel = "medicare.audit"

const (
	DefaultRecentLimit = 50
	DefaultLatestLimit = 100

	publishTimeout = 500 * time.Millisecond
)

type Service struct {
	repo      repository.AuditRepository
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo repository.AuditRepository, publisher messaging.Publisher, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("component", "audit").Logger(),
		now:       time.Now,
	}
}

// Record appends one entry for actor. Failures are logged and never returned
// so auditing can not fail the operation being audited.
func (s *Service) Record(ctx context.Context, actor model.Actor, action, resourceType, resourceID string, details model.JSONMap) {
	entry := &model.AuditLog{
		ID:           uuid.New(),
		UserID:       actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    actor.IPAddress,
		Details:      details,
		Timestamp:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.metrics.AuditWrites.WithLabelValues(action, "error").Inc()
		s.logger.Warn().Err(err).
			Str("action", action).
			Str("user_id", actor.UserID.String()).
			Msg("failed to write audit log")
		return
	}
	s.metrics.AuditWrites.WithLabelValues(action, "ok").Inc()

	s.publish(ctx, entry)
}

func (s *Service) publish(ctx context.Context, entry *model.AuditLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg := messaging.Message{Type: "audit." + entry.Action, Payload: entry, Timestamp: entry.Timestamp}
	if err := s.publisher.Publish(ctx, Channel, msg); err != nil {
		s.metrics.AuditPublishes.WithLabelValues("error").Inc()
		s.logger.Debug().Err(err).Str("action", entry.Action).Msg("failed to publish audit log")
		return
	}
	s.metrics.AuditPublishes.WithLabelValues("ok").Inc()
}

// RecentFor returns the user's newest entries first.
func (s *Service) RecentFor(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.List(ctx, userID, limit)
}

// Latest returns the newest entries across all users.
func (s *Service) Latest(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return s.repo.List(ctx, uuid.Nil, limit)
}
