// Package broker hands outbox messages to a message bus.
package broker

import (
	"context"
	"log/slog"
)

type Message struct {
	ID      int64
	Topic   string
	Key     string
	Payload []byte
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type logPublisher struct {
	log *slog.Logger
}

// NewLog "publishes" by writing the message to the structured log. It is the
// default when no broker is configured.
func NewLog(log *slog.Logger) Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &logPublisher{log: log}
}

func (p *logPublisher) Publish(ctx context.Context, msg Message) error {
	p.log.InfoContext(ctx, "event published",
		"outbox_id", msg.ID,
		"topic", msg.Topic,
		"key", msg.Key,
		"payload", string(msg.Payload),
	)
	return nil
}

func (p *logPublisher) Close() error { return nil }
