package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	client := newMockClient("client-1", userID)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(userID, NotificationCreated(map[string]interface{}{"id": float64(42)}))

	// Allow async broadcast to complete
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, client.GetMessages(), 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(uuid.New(), TransactionCreated(map[string]interface{}{"id": float64(1)}))
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*NoOpPublisher)(nil)
}
