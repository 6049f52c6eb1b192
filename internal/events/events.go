// Package events publishes print job lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Type names a lifecycle transition
type Type string

const (
	TypeStarted   Type = "started"
	TypeSucceeded Type = "succeeded"
	TypeFailed    Type = "failed"
)

// JobEvent is the message body published for each transition
type JobEvent struct {
	EventID       string    `json:"event_id"`
	Type          Type      `json:"type"`
	JobName       string    `json:"job_name"`
	Position      int       `json:"position,omitempty"` // 1-based, 0 for direct prints
	PrinterSerial string    `json:"printer_serial"`
	Message       string    `json:"message,omitempty"`
	OutputFile    string    `json:"output_file,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewJobEvent stamps a new event with an id and the current time
func NewJobEvent(t Type, jobName string, position int, printerSerial string) JobEvent {
	return JobEvent{
		EventID:       uuid.NewString(),
		Type:          t,
		JobName:       jobName,
		Position:      position,
		PrinterSerial: printerSerial,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher delivers job events
type Publisher interface {
	Publish(ctx context.Context, event JobEvent) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, JobEvent) error { return nil }

// Broker is the subset of the RabbitMQ client used for publishing
type Broker interface {
	PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// AMQPPublisher publishes events as JSON under "<prefix>.<type>"
type AMQPPublisher struct {
	broker Broker
	prefix string
	logger *slog.Logger
}

// NewAMQPPublisher creates a publisher. prefix defaults to "job".
func NewAMQPPublisher(broker Broker, prefix string, logger *slog.Logger) *AMQPPublisher {
	if prefix == "" {
		prefix = "job"
	}
	return &AMQPPublisher{
		broker: broker,
		prefix: prefix,
		logger: logger,
	}
}

// Publish marshals event and hands it to the broker
func (p *AMQPPublisher) Publish(ctx context.Context, event JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	routingKey := p.prefix + "." + string(event.Type)
	if err := p.broker.PublishWithRetry(ctx, routingKey, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug("Job event published",
		slog.String("event_id", event.EventID),
		slog.String("routing_key", routingKey),
	)

	return nil
}
