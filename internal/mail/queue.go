package mail

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Queue accepts messages for asynchronous delivery
type Queue interface {
	Enqueue(ctx context.Context, msg *Message) error
}

// LogQueue logs messages instead of delivering them. Used when no broker is configured.
type LogQueue struct{}

// NewLogQueue creates a LogQueue
func NewLogQueue() *LogQueue {
	return &LogQueue{}
}

func (q *LogQueue) Enqueue(_ context.Context, msg *Message) error {
	log.Info().
		Str("to", msg.To).
		Str("kind", string(msg.Kind)).
		Str("subject", msg.Subject).
		Msg("Mail queue disabled, message not sent")
	return nil
}
