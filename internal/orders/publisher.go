package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/google/uuid"
)

// EventOrderPlaced is the event type of the checkout hand-off message.
const EventOrderPlaced = "order.placed"

const defaultPublishTimeout = 10 * time.Second

// Publisher hands a placed order to downstream systems.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *cart.Order) error
}

// NoopPublisher is used when no topic is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, *cart.Order) error { return nil }

// Envelope is the JSON body of an order.placed message.
type Envelope struct {
	Version    int         `json:"version"`
	EventID    string      `json:"eventId"`
	EventType  string      `json:"eventType"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       *cart.Order `json:"data"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// PubSubPublisher publishes order.placed envelopes to a Pub/Sub topic.
type PubSubPublisher struct {
	topic topicPublisher
	now   func() time.Time
}

func NewPubSubPublisher(p *gcppubsub.Publisher) (*PubSubPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return &PubSubPublisher{topic: &gcpPublisher{Publisher: p}, now: time.Now}, nil
}

func (p *PubSubPublisher) PublishOrderPlaced(ctx context.Context, order *cart.Order) error {
	if order == nil {
		return errors.New("order required")
	}
	envelope := Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  EventOrderPlaced,
		OccurredAt: p.now().UTC(),
		Data:       order,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode order envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":   envelope.EventID,
			"event_type": EventOrderPlaced,
			"order_id":   order.ID,
			"user_id":    order.UserID,
			"created_at": order.CreatedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.topic.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil for order %s", order.ID)
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish order %s: %w", order.ID, err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *PubSubPublisher) Stop() {
	if g, ok := p.topic.(*gcpPublisher); ok && g.Publisher != nil {
		g.Publisher.Stop()
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
