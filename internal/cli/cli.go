// Package cli implements the printq command line: queue and library listing,
// adding jobs, and starting queued or direct prints.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/library"
	"github.com/cuongbtq/printq/internal/orchestrator"
	"github.com/cuongbtq/printq/internal/queue"
)

// ErrFailed is returned after the failure has already been reported to the user
var ErrFailed = errors.New("command failed")

// App runs commands against the wired services
type App struct {
	out          io.Writer
	queue        *queue.Store
	library      *library.Store
	orchestrator *orchestrator.Orchestrator
}

// NewApp creates an App printing to out
func NewApp(out io.Writer, q *queue.Store, lib *library.Store, orch *orchestrator.Orchestrator) *App {
	return &App{
		out:          out,
		queue:        q,
		library:      lib,
		orchestrator: orch,
	}
}

// Run dispatches on the first command flag that is set. It reports false
// when no command was given.
func (a *App) Run(ctx context.Context, opts *Options) (bool, error) {
	switch {
	case opts.ListLib:
		return true, a.listLibrary(ctx)
	case opts.RunLib != "":
		return true, a.runLibraryJob(ctx, opts.RunLib)
	case opts.List:
		return true, a.listQueue(ctx)
	case opts.Add != "":
		return true, a.addToQueue(ctx, opts)
	case opts.Queue != "":
		return true, a.startQueueJob(ctx, opts.Queue, opts.Printer)
	case opts.File != "":
		return true, a.directPrint(ctx, opts)
	default:
		return false, nil
	}
}

func (a *App) printStatus(msg string) {
	fmt.Fprintf(a.out, "  → %s\n", msg)
}

func (a *App) listQueue(ctx context.Context) error {
	jobs, err := a.queue.List(ctx)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(a.out, "Queue is empty.")
		return nil
	}

	fmt.Fprintln(a.out, "\n=== Print Queue ===")
	for i, job := range jobs {
		fmt.Fprintf(a.out, "  [%d] %s (x%s) - %s\n", i+1, job.DisplayName(), job.CopiesLabel(), job.Status)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *App) addToQueue(ctx context.Context, opts *Options) error {
	job, err := a.queue.Add(ctx, queue.AddRequest{
		SourceFile: opts.Add,
		Name:       opts.Name,
		Copies:     opts.EffectiveCopies(),
		UseSweep:   !opts.NoSweep,
	})
	if err != nil {
		return a.report(ctx, err)
	}

	fmt.Fprintf(a.out, "Added to queue: '%s' (x%s)\n", job.Name, job.CopiesLabel())
	return nil
}

func (a *App) startQueueJob(ctx context.Context, jobID, printerID string) error {
	run, err := a.orchestrator.ResolveQueued(ctx, jobID, printerID)
	if err != nil {
		return a.report(ctx, err)
	}

	fmt.Fprintf(a.out, "\nStarting job: %s on %s\n", run.Job.DisplayName(), run.Printer.Name)

	result, err := a.orchestrator.Execute(ctx, run.Job, run.Position, run.Printer, a.printStatus)
	return a.finish(ctx, result, err)
}

func (a *App) directPrint(ctx context.Context, opts *Options) error {
	run, err := a.orchestrator.ResolveDirect(ctx, orchestrator.DirectPrint{
		SourceFile: opts.File,
		Copies:     opts.EffectiveCopies(),
		UseSweep:   !opts.NoSweep,
	}, opts.Printer)
	if err != nil {
		return a.report(ctx, err)
	}

	fmt.Fprintf(a.out, "\nDirect Print: %s (x%s) on %s\n", filepath.Base(opts.File), run.Job.CopiesLabel(), run.Printer.Name)

	result, err := a.orchestrator.Execute(ctx, run.Job, run.Position, run.Printer, a.printStatus)
	return a.finish(ctx, result, err)
}

func (a *App) finish(ctx context.Context, result *orchestrator.ExecutionResult, err error) error {
	switch {
	case result != nil && result.Success:
		fmt.Fprintf(a.out, "\n✅ %s\n", result.Message)
		if err != nil {
			return a.report(ctx, err)
		}
		return nil
	case result != nil:
		fmt.Fprintf(a.out, "\n❌ %s\n", result.Message)
		return ErrFailed
	default:
		return a.report(ctx, err)
	}
}

func (a *App) listLibrary(ctx context.Context) error {
	jobs, err := a.library.List(ctx)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(a.out, "Library is empty.")
		return nil
	}

	fmt.Fprintln(a.out, "\n=== Job Library ===")
	for i, job := range jobs {
		fmt.Fprintf(a.out, "  [%d] %s (x%s)\n", i+1, job.DisplayName(), job.CopiesLabel())
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *App) runLibraryJob(ctx context.Context, identifier string) error {
	template, err := a.library.FindByIdentifier(ctx, identifier)
	if err != nil {
		return a.report(ctx, err)
	}

	if _, err := a.library.CloneIntoQueue(ctx, template); err != nil {
		return a.report(ctx, err)
	}

	fmt.Fprintf(a.out, "Added library job '%s' to queue.\n", template.Name)
	return nil
}

// report prints err the way the user expects for its kind, with the listing
// that helps pick a valid identifier, and returns ErrFailed
func (a *App) report(ctx context.Context, err error) error {
	var printerErr *domain.PrinterNotFoundError
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &printerErr):
		fmt.Fprintf(a.out, "Error: Printer '%s' not found.\n", printerErr.Identifier)
		fmt.Fprintln(a.out, "Available printers:")
		for i, p := range printerErr.Available {
			fmt.Fprintf(a.out, "  [%d] %s (%s)\n", i+1, p.Name, p.Serial)
		}
	case errors.Is(err, domain.ErrNoPrintersConfigured):
		fmt.Fprintln(a.out, "Error: No printers configured. Run the GUI to add printers.")
	case errors.Is(err, domain.ErrInvalidConfiguration):
		fmt.Fprintf(a.out, "Error: %v.\n", err)
	case errors.Is(err, domain.ErrJobNotFound):
		fmt.Fprintf(a.out, "Error: %v in queue.\n", err)
		if listErr := a.listQueue(ctx); listErr != nil {
			return errors.Join(ErrFailed, listErr)
		}
	case errors.Is(err, domain.ErrLibraryJobNotFound):
		fmt.Fprintf(a.out, "Error: %v.\n", err)
	case errors.Is(err, domain.ErrSourceFileNotFound):
		fmt.Fprintf(a.out, "Error: File not found: %s\n", trimSentinel(err, domain.ErrSourceFileNotFound))
	case errors.As(err, &validationErr):
		fmt.Fprintf(a.out, "Error: %s %s\n", validationErr.Field, validationErr.Message)
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}

	return ErrFailed
}

func trimSentinel(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
