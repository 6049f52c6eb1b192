// Package worker consumes print requests from RabbitMQ and runs them one at a
// time against the shared queue.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/printq/internal/orchestrator"
	amqp "github.com/rabbitmq/amqp091-go"
)

// concurrency is fixed: queue storage has no locking, so requests must not
// overlap
const concurrency = 1

// Consumer delivers print request messages
type Consumer interface {
	Consume(consumerTag string, prefetch int) (<-chan amqp.Delivery, error)
}

// JobRunner executes a queue entry on a printer
type JobRunner interface {
	RunQueued(ctx context.Context, jobID, printerID string, status orchestrator.StatusFunc) (*orchestrator.ExecutionResult, error)
}

// Config holds worker configuration
type Config struct {
	Logger     *slog.Logger
	Consumer   Consumer
	Runner     JobRunner
	WorkerID   string
	JobTimeout time.Duration
}

// Worker represents the print request worker
type Worker struct {
	logger     *slog.Logger
	consumer   Consumer
	runner     JobRunner
	workerID   string
	jobTimeout time.Duration
	jobsChan   chan *jobMessage
	wg         sync.WaitGroup
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:     cfg.Logger,
		consumer:   cfg.Consumer,
		runner:     cfg.Runner,
		workerID:   cfg.WorkerID,
		jobTimeout: cfg.JobTimeout,
		jobsChan:   make(chan *jobMessage),
		stopChan:   make(chan struct{}),
	}
}

// Start consumes print requests until ctx is canceled or the delivery
// channel closes
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.startMessageDispatcher(ctx, deliveries)
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("Worker context canceled, stopping...")
	case <-w.stopChan:
	}

	return nil
}

// Stop signals the goroutines to finish and waits for the request in flight
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
