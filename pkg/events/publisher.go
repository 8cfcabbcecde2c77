package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event is the envelope published for every notification dispatch.
type Event struct {
	Kind     string      `json:"kind"`
	Outcome  string      `json:"outcome"`
	Payload  interface{} `json:"payload,omitempty"`
	SentAt   time.Time   `json:"sent_at"`
	Source   string      `json:"source"`
	RunID    string      `json:"run_id,omitempty"`
	Attempts int         `json:"attempts,omitempty"`
}

// Publisher fans notification events out over NATS. A nil Publisher, or one
// without a connection, drops events silently.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	source string
	logger *zap.Logger
}

// Connect dials NATS. An empty URL disables publishing and returns a nil
// connection without error.
func Connect(url, name string) (*nats.Conn, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

// NewPublisher wraps a connection. conn may be nil.
func NewPublisher(conn *nats.Conn, subjectPrefix, source string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if subjectPrefix == "" {
		subjectPrefix = "proceso"
	}
	return &Publisher{
		conn:   conn,
		prefix: strings.TrimSuffix(subjectPrefix, "."),
		source: source,
		logger: logger,
	}
}

// Subject returns the subject notifications of kind are published on.
func (p *Publisher) Subject(kind string) string {
	prefix := "proceso"
	if p != nil && p.prefix != "" {
		prefix = p.prefix
	}
	return prefix + ".notifications." + kind
}

// Enabled reports whether events will actually be sent.
func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

// Publish sends the event. Delivery is best-effort: failures are logged and
// returned, but callers are expected not to fail on them.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if !p.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}
	if event.Source == "" {
		event.Source = p.source
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := p.Subject(event.Kind)
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Sugar().Warnw("failed to publish notification event", "subject", subject, "error", err)
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if !p.Enabled() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Sugar().Warnw("failed to drain nats connection", "error", err)
	}
}
