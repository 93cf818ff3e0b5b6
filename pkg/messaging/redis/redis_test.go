package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medicare-api/pkg/messaging"
)

func TestNewPublisherRejectsBadURL(t *testing.T) {
	_, err := NewPublisher(context.Background(), Config{URL: "not-a-url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPublishOpensBreakerOnFailures(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	p := newPublisher(client, zerolog.Nop())
	defer p.Close()

	ctx := context.Background()
	msg := messaging.Message{Type: "audit.login"}

	for i := 0; i < 3; i++ {
		err := p.Publish(ctx, "medicare.audit", msg)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	err := p.Publish(ctx, "medicare.audit", msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
