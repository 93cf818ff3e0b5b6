package messaging

import (
	"context"
	"time"
)

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, channel string, msg Message) error
	Close() error
}

// Message is the envelope every published event is wrapped in.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NopPublisher discards every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Message) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
