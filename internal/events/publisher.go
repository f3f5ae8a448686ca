package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"stream-market/internal/models"
)

// Publisher forwards committed events to downstream consumers. Publishing is
// advisory: the event log is the record of truth.
type Publisher interface {
	Publish(ctx context.Context, row *models.EventLog) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.EventLog) error { return nil }

const streamName = "STREAM_MARKET_EVENTS"

// Subject returns stream.market.events.{event_name}.{stream_id}.
func Subject(row *models.EventLog) string {
	return fmt.Sprintf("stream.market.events.%s.%d", row.EventName, row.StreamID)
}

// NATSPublisher publishes event log rows to JetStream. The row id is used as
// the message id so redelivered publishes are deduplicated by the server.
type NATSPublisher struct {
	js jetstream.JetStream
}

func NewNATSPublisher(js jetstream.JetStream) *NATSPublisher {
	return &NATSPublisher{js: js}
}

func (p *NATSPublisher) Publish(ctx context.Context, row *models.EventLog) error {
	_, err := p.js.Publish(ctx, Subject(row), []byte(row.Data), jetstream.WithMsgID(row.ID.String()))
	if err != nil {
		return fmt.Errorf("publish %s: %w", row.EventName, err)
	}
	return nil
}

// EnsureStream creates the JetStream stream that captures market events.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       streamName,
		Subjects:   []string{"stream.market.events.>"},
		Storage:    jetstream.FileStorage,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Replicas:   1,
	})
	if err != nil {
		return fmt.Errorf("create event stream: %w", err)
	}
	return nil
}

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*NATSPublisher)(nil)
)
