// Package orchestrator runs print jobs: it generates the G-code artifact,
// uploads and starts it on the resolved printer, and records the outcome in
// the queue.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/events"
)

// ExecutionResult describes one execution attempt
type ExecutionResult struct {
	Success    bool
	Message    string
	OutputFile string
}

// DirectPrint describes a model printed without going through the queue
type DirectPrint struct {
	SourceFile  string
	Copies      int // -1 for infinite
	UseSweep    bool
	UseCooldown bool
}

// Orchestrator drives job execution
type Orchestrator struct {
	generator GCodeGenerator
	uploader  PrintUploader
	queue     JobQueue
	printers  PrinterResolver
	events    events.Publisher
	logger    *slog.Logger
}

// Config holds the orchestrator collaborators
type Config struct {
	Generator GCodeGenerator
	Uploader  PrintUploader
	Queue     JobQueue
	Printers  PrinterResolver
	Events    events.Publisher // optional
	Logger    *slog.Logger
}

// New creates an orchestrator
func New(cfg *Config) *Orchestrator {
	pub := cfg.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}

	return &Orchestrator{
		generator: cfg.Generator,
		uploader:  cfg.Uploader,
		queue:     cfg.Queue,
		printers:  cfg.Printers,
		events:    pub,
		logger:    cfg.Logger,
	}
}

// Execute runs job once on printer. position is the 0-based queue position
// of job, or -1 for a job that is not in the queue. On success a finite
// queued job is marked done; on failure the queue is left untouched.
func (o *Orchestrator) Execute(ctx context.Context, job domain.JobRecord, position int, printer domain.PrinterConfig, status StatusFunc) (*ExecutionResult, error) {
	if err := printer.Validate(); err != nil {
		return nil, err
	}
	if status == nil {
		status = func(string) {}
	}

	log := o.logger.With(
		slog.String("job", job.DisplayName()),
		slog.Int("position", position+1),
		slog.String("printer", printer.Name),
		slog.String("serial", printer.Serial),
	)
	log.Info("Executing job", slog.Int("copies", job.EffectiveCopies()))
	o.publish(ctx, job, position, printer, events.TypeStarted, nil)

	outputFile, err := o.artifact(ctx, job, status, log)
	if err != nil {
		log.Error("G-code generation failed", slog.String("error", err.Error()))
		o.publish(ctx, job, position, printer, events.TypeFailed, func(e *events.JobEvent) {
			e.Message = err.Error()
		})
		return nil, err
	}

	ok, msg := o.uploader.UploadAndStart(ctx, UploadRequest{
		IP:         printer.IP,
		AccessCode: printer.AccessCode,
		Serial:     printer.Serial,
		OutputFile: outputFile,
		UseAMS:     job.AMS(),
	}, status)

	if !ok {
		log.Error("Upload failed", slog.String("message", msg))
		o.publish(ctx, job, position, printer, events.TypeFailed, func(e *events.JobEvent) {
			e.Message = msg
			e.OutputFile = outputFile
		})
		return &ExecutionResult{Success: false, Message: msg}, &domain.UploadError{Message: msg}
	}

	result := &ExecutionResult{Success: true, Message: msg, OutputFile: outputFile}
	log.Info("Print started", slog.String("output_file", outputFile))
	o.publish(ctx, job, position, printer, events.TypeSucceeded, func(e *events.JobEvent) {
		e.Message = msg
		e.OutputFile = outputFile
	})

	if position >= 0 && !job.IsInfinite() {
		if err := o.queue.MarkDone(ctx, position, printer.Serial); err != nil {
			return result, fmt.Errorf("print started but queue was not updated: %w", err)
		}
	}

	return result, nil
}

// artifact returns a staged artifact when the job has one on disk, otherwise
// it generates a fresh one
func (o *Orchestrator) artifact(ctx context.Context, job domain.JobRecord, status StatusFunc, log *slog.Logger) (string, error) {
	if job.GeneratedFile != "" {
		if _, err := os.Stat(job.GeneratedFile); err == nil {
			log.Debug("Using pre-generated file", slog.String("generated_file", job.GeneratedFile))
			status("Using pre-generated file...")
			return job.GeneratedFile, nil
		}
		log.Warn("Pre-generated file missing, regenerating", slog.String("generated_file", job.GeneratedFile))
	}

	status("Generating G-code...")
	outputFile, err := o.generator.Generate(ctx, GenerateRequest{
		SourceFile:   job.SourceFile,
		Copies:       job.EffectiveCopies(),
		UseSweep:     job.Sweep(),
		UseCooldown:  job.UseCooldown,
		CooldownTemp: job.Cooldown(),
	})
	if err != nil {
		return "", &domain.GenerationError{SourceFile: job.SourceFile, Err: err}
	}

	return outputFile, nil
}

// Run is a resolved execution: a job, its 0-based queue position (-1 when
// the job is not in the queue) and a validated printer
type Run struct {
	Job      domain.JobRecord
	Position int
	Printer  domain.PrinterConfig
}

// ResolveQueued resolves and validates the printer named by printerID, then
// looks up the queue entry named by jobID
func (o *Orchestrator) ResolveQueued(ctx context.Context, jobID, printerID string) (Run, error) {
	printer, err := o.resolvePrinter(ctx, printerID)
	if err != nil {
		return Run{}, err
	}

	job, position, err := o.queue.FindByIdentifier(ctx, jobID)
	if err != nil {
		return Run{}, err
	}

	return Run{Job: job, Position: position, Printer: printer}, nil
}

// RunQueued executes the queue entry named by jobID on the printer named by
// printerID. The printer is resolved and validated before the job is looked up.
func (o *Orchestrator) RunQueued(ctx context.Context, jobID, printerID string, status StatusFunc) (*ExecutionResult, error) {
	run, err := o.ResolveQueued(ctx, jobID, printerID)
	if err != nil {
		return nil, err
	}

	return o.Execute(ctx, run.Job, run.Position, run.Printer, status)
}

// ResolveDirect checks the model file, resolves and validates the printer and
// builds the transient record of a direct print
func (o *Orchestrator) ResolveDirect(ctx context.Context, req DirectPrint, printerID string) (Run, error) {
	if _, err := os.Stat(req.SourceFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Run{}, fmt.Errorf("%w: %s", domain.ErrSourceFileNotFound, req.SourceFile)
		}
		return Run{}, fmt.Errorf("failed to stat %s: %w", req.SourceFile, err)
	}

	printer, err := o.resolvePrinter(ctx, printerID)
	if err != nil {
		return Run{}, err
	}

	base := filepath.Base(req.SourceFile)
	job := domain.JobRecord{
		Name:         strings.TrimSuffix(base, filepath.Ext(base)),
		SourceFile:   req.SourceFile,
		Copies:       req.Copies,
		UseSweep:     domain.Bool(req.UseSweep),
		UseCooldown:  req.UseCooldown,
		CooldownTemp: domain.Int(domain.DefaultCooldownTemp),
		Status:       domain.JobStatusPending,
	}
	if err := job.Validate(); err != nil {
		return Run{}, err
	}

	return Run{Job: job, Position: -1, Printer: printer}, nil
}

// PrintDirect generates and prints a model file without touching the queue
func (o *Orchestrator) PrintDirect(ctx context.Context, req DirectPrint, printerID string, status StatusFunc) (*ExecutionResult, error) {
	run, err := o.ResolveDirect(ctx, req, printerID)
	if err != nil {
		return nil, err
	}

	return o.Execute(ctx, run.Job, run.Position, run.Printer, status)
}

func (o *Orchestrator) resolvePrinter(ctx context.Context, printerID string) (domain.PrinterConfig, error) {
	printer, err := o.printers.Resolve(ctx, printerID)
	if err != nil {
		return domain.PrinterConfig{}, err
	}
	if err := printer.Validate(); err != nil {
		return domain.PrinterConfig{}, err
	}
	return printer, nil
}

// publish hands an event to the publisher. Failures are only logged.
func (o *Orchestrator) publish(ctx context.Context, job domain.JobRecord, position int, printer domain.PrinterConfig, t events.Type, fill func(*events.JobEvent)) {
	event := events.NewJobEvent(t, job.DisplayName(), position+1, printer.Serial)
	if fill != nil {
		fill(&event)
	}

	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to publish job event",
			slog.String("type", string(t)),
			slog.String("job", event.JobName),
			slog.String("error", err.Error()),
		)
	}
}
