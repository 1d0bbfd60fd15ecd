// Package events publishes domain events for other services to react to
// (notifications, analytics).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"eventhub/internal/logging"
)

// Subjects
const (
	OnboardingCompleted = "onboarding.completed"
	AccountPublished    = "account.published"
	AccountUnpublished  = "account.unpublished"
	VenuePublished      = "venue.published"
	VenueUnpublished    = "venue.unpublished"
	MessageSent         = "message.sent"
)

// Publisher sends an event payload on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

// OnboardingCompletedEvent is emitted once per account.
type OnboardingCompletedEvent struct {
	UID         string    `json:"uid"`
	Role        string    `json:"role"`
	CompletedAt time.Time `json:"completed_at"`
}

// PublicationEvent is emitted whenever a listing changes visibility.
type PublicationEvent struct {
	UID     string    `json:"uid"`
	VenueID int64     `json:"venue_id,omitempty"`
	Listed  bool      `json:"listed"`
	At      time.Time `json:"at"`
}

// MessageSentEvent lets a notifier alert the receiver.
type MessageSentEvent struct {
	MessageID  int64     `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	SentAt     time.Time `json:"sent_at"`
}

// NATSPublisher publishes JSON payloads to NATS.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("eventhub"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	logging.WithContext(ctx).Debug().Str("subject", subject).RawJSON("data", payload).Msg("Publishing event")

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

// Recorded is one captured event.
type Recorded struct {
	Subject string
	Data    any
}

func (r *Recorder) Publish(_ context.Context, subject string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Subject: subject, Data: data})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Subjects returns the subjects published so far, in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Subject)
	}
	return out
}

// PublishBestEffort publishes and logs failures instead of returning them. State
// changes are already committed when events go out.
func PublishBestEffort(ctx context.Context, p Publisher, subject string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, data); err != nil {
		logging.WithContext(ctx).Warn().Err(err).Str("subject", subject).Msg("Publish event failed")
	}
}
