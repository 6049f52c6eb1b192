package orchestrator

import (
	"context"

	"github.com/cuongbtq/printq/internal/domain"
)

// StatusFunc receives human-readable progress messages
type StatusFunc func(msg string)

// GenerateRequest holds the inputs of one G-code generation
type GenerateRequest struct {
	SourceFile   string
	Copies       int
	UseSweep     bool
	UseCooldown  bool
	CooldownTemp int
}

// GCodeGenerator turns a source model into a printable artifact and returns
// the artifact path
type GCodeGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// UploadRequest holds the printer connection and the artifact to start
type UploadRequest struct {
	IP         string
	AccessCode string
	Serial     string
	OutputFile string
	UseAMS     bool
}

// PrintUploader sends an artifact to a printer and starts it. Failures are
// reported through the returned flag and message.
type PrintUploader interface {
	UploadAndStart(ctx context.Context, req UploadRequest, status StatusFunc) (bool, string)
}

// JobQueue is the part of the queue store the orchestrator needs
type JobQueue interface {
	FindByIdentifier(ctx context.Context, identifier string) (domain.JobRecord, int, error)
	MarkDone(ctx context.Context, position int, targetSerial string) error
}

// PrinterResolver resolves a printer identifier against configuration
type PrinterResolver interface {
	Resolve(ctx context.Context, identifier string) (domain.PrinterConfig, error)
}
