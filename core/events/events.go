package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	eventSource = "fleet-sync"
	// TypeSyncCompleted is the CloudEvent type of a sealed sync run.
	TypeSyncCompleted = "io.fleet.sync.completed"
)

// CloudEvent is the envelope every published event is wrapped in.
type CloudEvent struct {
	SpecVersion     string    `json:"specversion"`
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Type            string    `json:"type"`
	DataContentType string    `json:"datacontenttype"`
	Subject         string    `json:"subject"`
	Time            time.Time `json:"time"`
	Data            any       `json:"data"`
}

// SyncCompleted summarizes a sealed sync run.
type SyncCompleted struct {
	RunID             string    `json:"run_id"`
	OrganizationID    string    `json:"organization_id"`
	IntegrationID     string    `json:"integration_id"`
	ProviderType      string    `json:"provider_type"`
	Status            string    `json:"status"`
	DevicesTotal      int       `json:"devices_total"`
	DevicesSucceeded  int       `json:"devices_succeeded"`
	DevicesFailed     int       `json:"devices_failed"`
	ConflictsDetected int       `json:"conflicts_detected"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Publisher announces sync outcomes to other services.
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, event SyncCompleted) error
	Close()
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NatsPublisher publishes CloudEvents on a core NATS subject.
type NatsPublisher struct {
	conn    Conn
	subject string
	log     *zap.Logger
}

// NewPublisher connects to NATS, or returns a no-op publisher when no URL is configured.
func NewPublisher(cfg Config, log *zap.Logger) (Publisher, error) {
	if cfg.NatsURL == "" {
		return Noop{}, nil
	}

	nc, err := nats.Connect(cfg.NatsURL,
		nats.Name(eventSource),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return NewNatsPublisher(nc, cfg.Subject, log), nil
}

// NewNatsPublisher wraps an established connection.
func NewNatsPublisher(conn Conn, subject string, log *zap.Logger) *NatsPublisher {
	if subject == "" {
		subject = "fleet.sync.completed"
	}
	return &NatsPublisher{conn: conn, subject: subject, log: log}
}

// PublishSyncCompleted implements Publisher.
func (p *NatsPublisher) PublishSyncCompleted(ctx context.Context, data SyncCompleted) error {
	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          eventSource,
		Type:            TypeSyncCompleted,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            data.FinishedAt,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush sync event: %w", err)
	}

	p.log.Debug("Published sync event",
		zap.String("event_id", event.ID),
		zap.String("subject", p.subject),
		zap.String("run_id", data.RunID))

	return nil
}

// Close closes the underlying connection.
func (p *NatsPublisher) Close() {
	p.conn.Close()
}

// Noop discards events.
type Noop struct{}

func (Noop) PublishSyncCompleted(context.Context, SyncCompleted) error { return nil }
func (Noop) Close()                                                    {}
