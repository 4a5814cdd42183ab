// Package notify publishes build events to interested subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/texdoc/internal/logfields"
	"git.home.luguber.info/inful/texdoc/internal/retry"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "texdoc.builds"

// BuildEvent describes a finished build.
type BuildEvent struct {
	JobID       string    `json:"job_id"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	Artifact    string    `json:"artifact,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CompileOK   bool      `json:"compile_ok"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, event BuildEvent) error
	Close() error
}

// NoopPublisher drops every event (default when notifications are not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildEvent) error { return nil }
func (NoopPublisher) Close() error                              { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// DefaultRetryPolicy retries a failed publish twice before giving up.
func DefaultRetryPolicy() retry.Policy {
	return retry.NewPolicy(retry.ModeExponential, 200*time.Millisecond, 2*time.Second, 2)
}

// NATSPublisher publishes JSON encoded events on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
}

// NewNATSPublisher connects to url. An empty subject selects DefaultSubject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("texdoc"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subjectOrDefault(subject)))
	return newPublisher(nc, subject, DefaultRetryPolicy()), nil
}

func newPublisher(c conn, subject string, policy retry.Policy) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subjectOrDefault(subject), policy: policy}
}

func subjectOrDefault(subject string) string {
	if subject == "" {
		return DefaultSubject
	}
	return subject
}

// Publish sends event and waits for the server to acknowledge the flush,
// retrying per the publisher's policy.
func (p *NATSPublisher) Publish(ctx context.Context, event BuildEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.policy.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			slog.Debug("Retrying build event publish", logfields.JobID(event.JobID), slog.Int("attempt", attempt))
		}
		return p.send(ctx, data)
	})
	if err != nil {
		return err
	}

	slog.Debug("Published build event", logfields.JobID(event.JobID), slog.String("status", event.Status))
	return nil
}

func (p *NATSPublisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
