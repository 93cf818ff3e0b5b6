package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/medicare-api/pkg/messaging"
)

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

// Publisher sends messages over redis pub/sub. Consecutive failures open a
// circuit breaker so an unreachable redis costs nothing per request.
type Publisher struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

func NewPublisher(ctx context.Context, config Config, logger zerolog.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	if config.MaxRetries != 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newPublisher(client, logger), nil
}

func newPublisher(client *redis.Client, logger zerolog.Logger) *Publisher {
	p := &Publisher{client: client, logger: logger}
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return p
}

func (p *Publisher) Publish(ctx context.Context, channel string, msg messaging.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.client.Publish(ctx, channel, payload).Err()
	})
	return err
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
