package pubsub

import (
	"context"
	"fmt"

	"app/internal/config"

	"cloud.google.com/go/pubsub"
)

// Publisher emits event payloads for downstream consumers (analytics,
// notification workers). Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) (string, error)
	Close() error
}

// EventPublisher publishes to a single Google Pub/Sub topic fixed at
// construction time.
type EventPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewEventPublisher creates an EventPublisher for the roster events topic
// configured on cfg.
func NewEventPublisher(ctx context.Context, cfg *config.Config) (*EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &EventPublisher{
		client: client,
		topic:  client.Topic(cfg.RosterEventsTopic),
	}, nil
}

// Publish sends the payload and returns the server-assigned message ID.
func (p *EventPublisher) Publish(ctx context.Context, payload []byte) (string, error) {
	result := p.topic.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish to topic %s: %w", p.topic.ID(), err)
	}
	return id, nil
}

// Close stops the topic's publish goroutines and releases the client.
func (p *EventPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// NoopPublisher discards events. Used when no GCP project is configured,
// typically in local development.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, payload []byte) (string, error) {
	return "", nil
}

func (NoopPublisher) Close() error { return nil }
