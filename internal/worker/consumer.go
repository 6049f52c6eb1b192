package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/printq/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// jobMessage is a parsed print request together with its delivery
type jobMessage struct {
	request  domain.PrintRequest
	delivery amqp.Delivery
}

// setupConsumer starts a manual-ack consumer that prefetches one message per
// worker goroutine
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	deliveries, err := w.consumer.Consume(w.workerID, concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("Consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.Int("prefetch_count", concurrency),
	)

	return deliveries, nil
}

// startMessageDispatcher parses deliveries and hands valid requests to the
// worker pool. Invalid messages are rejected without requeue.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case <-w.stopChan:
			w.logger.Info("Message dispatcher stopped - stopChan closed")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				w.stopOnce.Do(func() { close(w.stopChan) })
				return
			}

			req, err := domain.ParsePrintRequest(delivery.Body)
			if err != nil {
				w.logger.Error("Rejecting malformed print request",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				w.nack(delivery, "", false)
				continue
			}

			select {
			case w.jobsChan <- &jobMessage{request: req, delivery: delivery}:
				w.logger.Debug("Print request dispatched",
					slog.String("request_id", req.RequestID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.nack(delivery, req.RequestID, true)
				return
			case <-w.stopChan:
				w.nack(delivery, req.RequestID, true)
				return
			}
		}
	}
}

func (w *Worker) nack(delivery amqp.Delivery, requestID string, requeue bool) {
	if err := delivery.Nack(false, requeue); err != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("Message NACKed",
		slog.String("request_id", requestID),
		slog.Bool("requeue", requeue),
	)
}
