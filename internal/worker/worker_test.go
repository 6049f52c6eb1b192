package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/orchestrator"
	workerdomain "github.com/cuongbtq/printq/internal/worker/domain"
	"github.com/cuongbtq/printq/shared/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcker struct {
	mu       sync.Mutex
	outcomes []outcome
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, outcome{tag: tag, acked: true})
	return nil
}

func (a *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, outcome{tag: tag, requeue: requeue})
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcker) byTag() map[uint64]outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uint64]outcome, len(a.outcomes))
	for _, o := range a.outcomes {
		out[o.tag] = o
	}
	return out
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	err        error
	prefetch   int
}

func (c *fakeConsumer) Consume(_ string, prefetch int) (<-chan amqp.Delivery, error) {
	c.prefetch = prefetch
	return c.deliveries, c.err
}

type runCall struct{ job, printer string }

type fakeRunner struct {
	mu    sync.Mutex
	calls []runCall
	errs  map[string]error
}

func (r *fakeRunner) RunQueued(_ context.Context, jobID, printerID string, status orchestrator.StatusFunc) (*orchestrator.ExecutionResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, runCall{jobID, printerID})
	r.mu.Unlock()

	status("Generating G-code...")
	if err := r.errs[jobID]; err != nil {
		return nil, err
	}
	return &orchestrator.ExecutionResult{Success: true, Message: "Print started"}, nil
}

func delivery(acker *fakeAcker, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: []byte(body)}
}

func request(job, printer string) string {
	return fmt.Sprintf(`{"request_id":"6f1c2a9e-8a47-4a63-9d0e-2f5b8f8c1a10","job":%q,"printer":%q}`, job, printer)
}

func TestWorker_ProcessesDeliveries(t *testing.T) {
	acker := &fakeAcker{}
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery, 8)}
	runner := &fakeRunner{errs: map[string]error{
		"Bracket": fmt.Errorf("%w: 'Bracket'", domain.ErrJobNotFound),
		"Clip":    &domain.UploadError{Message: "Printer offline"},
	}}

	consumer.deliveries <- delivery(acker, 1, request("Vase", "P1S_01"))
	consumer.deliveries <- delivery(acker, 2, `not json`)
	consumer.deliveries <- delivery(acker, 3, `{"request_id":"abc","job":"Vase"}`)
	consumer.deliveries <- delivery(acker, 4, request("Bracket", ""))
	consumer.deliveries <- delivery(acker, 5, request("Clip", "2"))
	close(consumer.deliveries)

	w := NewWorker(&Config{
		Logger:     logger.NewNop().Logger,
		Consumer:   consumer,
		Runner:     runner,
		WorkerID:   "worker-test",
		JobTimeout: time.Minute,
	})

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after the delivery channel closed")
	}
	w.Stop()

	assert.Equal(t, 1, consumer.prefetch)
	assert.Equal(t, []runCall{{"Vase", "P1S_01"}, {"Bracket", ""}, {"Clip", "2"}}, runner.calls)

	got := acker.byTag()
	require.Len(t, got, 5)
	assert.Equal(t, outcome{tag: 1, acked: true}, got[1])
	assert.Equal(t, outcome{tag: 2}, got[2])
	assert.Equal(t, outcome{tag: 3}, got[3])
	assert.Equal(t, outcome{tag: 4}, got[4])
	assert.Equal(t, outcome{tag: 5}, got[5])
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	w := NewWorker(&Config{
		Logger:   logger.NewNop().Logger,
		Consumer: consumer,
		Runner:   &fakeRunner{},
		WorkerID: "worker-test",
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	w.Stop()
}

func TestWorker_ConsumeError(t *testing.T) {
	consumeErr := errors.New("channel closed")
	w := NewWorker(&Config{
		Logger:   logger.NewNop().Logger,
		Consumer: &fakeConsumer{err: consumeErr},
		Runner:   &fakeRunner{},
		WorkerID: "worker-test",
	})

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, consumeErr)
}

func TestProcessRequest_CanceledContextIsRequeued(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(&Config{Logger: logger.NewNop().Logger, Runner: runner})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.processRequest(ctx, workerdomain.PrintRequest{RequestID: "x", Job: "Vase"})
	assert.ErrorIs(t, err, workerdomain.ErrShutdown)
	assert.True(t, shouldRequeue(err))
	assert.Empty(t, runner.calls)
}

func TestShouldRequeue(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not found", err: domain.ErrJobNotFound, want: false},
		{name: "invalid printer", err: domain.ErrInvalidConfiguration, want: false},
		{name: "generation", err: &domain.GenerationError{Err: errors.New("bad model")}, want: false},
		{name: "upload", err: &domain.UploadError{Message: "offline"}, want: false},
		{name: "storage", err: domain.ErrStorageUnavailable, want: false},
		{name: "shutdown", err: fmt.Errorf("%w: context canceled", workerdomain.ErrShutdown), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRequeue(tt.err))
		})
	}
}
