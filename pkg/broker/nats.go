package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sport-sections-api/internal/service"
)

// Conn is the subset of *nats.Conn used to publish events.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends application status events to a NATS subject.
type Publisher struct {
	conn    Conn
	subject string
	logger  zerolog.Logger
}

var _ service.EventPublisher = (*Publisher)(nil)

// Connect dials the NATS server at url.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// NewPublisher constructs a publisher. Events for a status are sent to "<subject>.<status>".
func NewPublisher(conn Conn, subject string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: strings.Trim(subject, "."),
		logger:  logger.With().Str("component", "nats_publisher").Logger(),
	}
}

// PublishApplicationEvent serialises the event and publishes it.
func (p *Publisher) PublishApplicationEvent(_ context.Context, event service.ApplicationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode application event: %w", err)
	}

	subject := p.subjectFor(event.Status)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish application event: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Uint("application_id", event.ApplicationID).Msg("application event published")
	return nil
}

func (p *Publisher) subjectFor(status string) string {
	if status == "" {
		return p.subject
	}
	return p.subject + "." + status
}
