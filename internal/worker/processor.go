package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/printq/internal/worker/domain"
)

// processRequest runs one print request under the job timeout
func (w *Worker) processRequest(ctx context.Context, req domain.PrintRequest) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", domain.ErrShutdown, ctx.Err())
	}

	log := w.logger.With(
		slog.String("request_id", req.RequestID),
		slog.String("job", req.Job),
		slog.String("printer", req.Printer),
	)
	log.Info("Processing print request")

	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	result, err := w.runner.RunQueued(jobCtx, req.Job, req.Printer, func(msg string) {
		log.Info("Print progress", slog.String("status", msg))
	})
	if err != nil {
		return err
	}

	log.Info("Print request completed",
		slog.String("message", result.Message),
		slog.String("output_file", result.OutputFile),
	)

	return nil
}
