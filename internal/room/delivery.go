package room

import (
	"context"

	"github.com/rs/zerolog"

	"live-caption-room-service/internal/models"
	"live-caption-room-service/internal/observability/logging"
)

// Delivery is the long-lived per-client stream. It drains the subscriber's
// queue in receipt order and hands each message to a transport-provided
// send function. It blocks only on its own queue, never on another
// client's state.
type Delivery struct {
	registry *Registry
	roomID   string
	clientID string
	queue    <-chan models.Message
	log      zerolog.Logger
}

// NewDelivery wraps the queue returned by Registry.Subscribe.
func NewDelivery(registry *Registry, roomID, clientID string, queue <-chan models.Message) *Delivery {
	return &Delivery{
		registry: registry,
		roomID:   roomID,
		clientID: clientID,
		queue:    queue,
		log:      logging.WithSubscriber(roomID, clientID),
	}
}

// Run serializes queued messages through send until ctx is cancelled, the
// queue is closed, or send fails. Before returning it unsubscribes the
// client, removing every set membership and its queue in one operation so
// abandoned subscriptions cannot accumulate.
func (d *Delivery) Run(ctx context.Context, send func(models.Message) error) error {
	defer func() {
		d.registry.Unsubscribe(d.roomID, d.clientID)
		d.log.Debug().Msg("delivery channel closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-d.queue:
			if !ok {
				return nil
			}
			if err := send(msg); err != nil {
				return err
			}
		}
	}
}
