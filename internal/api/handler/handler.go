package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/orchestrator"
	"github.com/cuongbtq/printq/internal/queue"
)

// QueueService is the queue store as seen by the HTTP layer
type QueueService interface {
	List(ctx context.Context) ([]domain.JobRecord, error)
	Add(ctx context.Context, req queue.AddRequest) (domain.JobRecord, error)
	FindByIdentifier(ctx context.Context, identifier string) (domain.JobRecord, int, error)
}

// LibraryService is the library store as seen by the HTTP layer
type LibraryService interface {
	List(ctx context.Context) ([]domain.LibraryJob, error)
	FindByIdentifier(ctx context.Context, identifier string) (domain.LibraryJob, error)
	CloneIntoQueue(ctx context.Context, template domain.LibraryJob) (domain.JobRecord, error)
}

// PrinterService lists configured printers
type PrinterService interface {
	List(ctx context.Context) ([]domain.PrinterConfig, error)
}

// JobRunner executes queue entries
type JobRunner interface {
	RunQueued(ctx context.Context, jobID, printerID string, status orchestrator.StatusFunc) (*orchestrator.ExecutionResult, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Service  string
	Queue    QueueService
	Library  LibraryService
	Printers PrinterService
	Runner   JobRunner
	Health   func(ctx context.Context) error // optional
}

// JobHandler handles queue, library and printer requests
type JobHandler struct {
	logger   *slog.Logger
	queue    QueueService
	library  LibraryService
	printers PrinterService
	runner   JobRunner
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:   deps.Logger,
		queue:    deps.Queue,
		library:  deps.Library,
		printers: deps.Printers,
		runner:   deps.Runner,
	}
}
