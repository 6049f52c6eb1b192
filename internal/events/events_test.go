package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cuongbtq/printq/shared/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey  string
	body        []byte
	contentType string
}

type fakeBroker struct {
	sent []published
	err  error
}

func (b *fakeBroker) PublishWithRetry(_ context.Context, routingKey string, body []byte, contentType string) error {
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, published{routingKey, body, contentType})
	return nil
}

func TestNewJobEvent(t *testing.T) {
	event := NewJobEvent(TypeStarted, "Vase", 2, "ABC123")

	_, err := uuid.Parse(event.EventID)
	require.NoError(t, err)
	assert.Equal(t, TypeStarted, event.Type)
	assert.Equal(t, "Vase", event.JobName)
	assert.Equal(t, 2, event.Position)
	assert.Equal(t, "ABC123", event.PrinterSerial)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestAMQPPublisher_Publish(t *testing.T) {
	broker := &fakeBroker{}
	pub := NewAMQPPublisher(broker, "", logger.NewNop().Logger)

	event := NewJobEvent(TypeSucceeded, "Vase", 1, "ABC123")
	event.OutputFile = "/tmp/vase_autoloop.3mf"
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, broker.sent, 1)
	assert.Equal(t, "job.succeeded", broker.sent[0].routingKey)
	assert.Equal(t, "application/json", broker.sent[0].contentType)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(broker.sent[0].body, &decoded))
	assert.Equal(t, event.EventID, decoded["event_id"])
	assert.Equal(t, "succeeded", decoded["type"])
	assert.Equal(t, "/tmp/vase_autoloop.3mf", decoded["output_file"])
	assert.NotContains(t, decoded, "message")
}

func TestAMQPPublisher_CustomPrefix(t *testing.T) {
	broker := &fakeBroker{}
	pub := NewAMQPPublisher(broker, "printq.job", logger.NewNop().Logger)

	require.NoError(t, pub.Publish(context.Background(), NewJobEvent(TypeFailed, "Clip", 0, "XYZ")))
	assert.Equal(t, "printq.job.failed", broker.sent[0].routingKey)
}

func TestAMQPPublisher_BrokerError(t *testing.T) {
	brokerErr := errors.New("channel closed")
	pub := NewAMQPPublisher(&fakeBroker{err: brokerErr}, "job", logger.NewNop().Logger)

	err := pub.Publish(context.Background(), NewJobEvent(TypeStarted, "Vase", 1, "ABC123"))
	assert.ErrorIs(t, err, brokerErr)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), JobEvent{}))
}
