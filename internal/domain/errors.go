package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every identifier resolution failure
	ErrNotFound = errors.New("not found")

	ErrPrinterNotFound    = fmt.Errorf("printer %w", ErrNotFound)
	ErrJobNotFound        = fmt.Errorf("job %w", ErrNotFound)
	ErrLibraryJobNotFound = fmt.Errorf("library job %w", ErrNotFound)

	// ErrNoPrintersConfigured is returned when a printer is needed but none exist
	ErrNoPrintersConfigured = errors.New("no printers configured")

	// ErrInvalidConfiguration is returned when a printer record misses required fields
	ErrInvalidConfiguration = errors.New("invalid printer configuration")

	// ErrInvalidJob is returned when a job record fails validation
	ErrInvalidJob = errors.New("invalid job")

	ErrGenerationFailure = errors.New("gcode generation failed")
	ErrUploadFailure     = errors.New("upload failed")

	// ErrStorageUnavailable is returned when durable storage cannot be written
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSourceFileNotFound is returned when a model file to print or enqueue does not exist
	ErrSourceFileNotFound = errors.New("source file not found")
)

// PrinterNotFoundError carries the configured printers so callers can list them
type PrinterNotFoundError struct {
	Identifier string
	Available  []PrinterConfig
}

func (e *PrinterNotFoundError) Error() string {
	return fmt.Sprintf("printer '%s' not found", e.Identifier)
}

func (e *PrinterNotFoundError) Unwrap() error {
	return ErrPrinterNotFound
}

// GenerationError wraps a failure reported by the G-code generator
type GenerationError struct {
	SourceFile string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("gcode generation failed for %s: %v", e.SourceFile, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailure, e.Err}
}

// UploadError carries the message of a failed upload/start attempt
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return "upload failed: " + e.Message
}

func (e *UploadError) Unwrap() error {
	return ErrUploadFailure
}

// ValidationError represents a field-level validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidJob
}
