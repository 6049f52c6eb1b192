package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/printq/internal/worker/domain"
)

// spawnWorkerPool starts the goroutines that execute print requests
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop executes requests and acks or nacks each delivery
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case msg := <-w.jobsChan:
			err := w.processRequest(ctx, msg.request)
			if err != nil {
				w.logger.Error("Print request failed",
					slog.String("worker_name", workerName),
					slog.String("request_id", msg.request.RequestID),
					slog.String("error", err.Error()),
				)
				w.nack(msg.delivery, msg.request.RequestID, shouldRequeue(err))
				continue
			}

			if ackErr := msg.delivery.Ack(false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("request_id", msg.request.RequestID),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}

// shouldRequeue reports whether a failed request goes back to the broker.
// Execution failures are final; only requests interrupted by shutdown before
// they ran are requeued.
func shouldRequeue(err error) bool {
	return errors.Is(err, domain.ErrShutdown)
}
