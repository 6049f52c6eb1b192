package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/store"
)

// QueueAppender receives jobs cloned from the library
type QueueAppender interface {
	Append(ctx context.Context, job domain.JobRecord) error
}

// Store reads the job library. It never writes library storage.
type Store struct {
	records    store.RecordStore[domain.LibraryJob]
	queue      QueueAppender
	stagingDir string
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for staged file names
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a library that clones into queue, staging pre-generated
// artifacts under stagingDir
func NewStore(records store.RecordStore[domain.LibraryJob], queue QueueAppender, stagingDir string, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		records:    records,
		queue:      queue,
		stagingDir: stagingDir,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the library in order with defaults applied
func (s *Store) List(ctx context.Context) ([]domain.LibraryJob, error) {
	jobs, err := s.records.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	for i := range jobs {
		jobs[i].Normalize()
	}

	return jobs, nil
}

// FindByIdentifier resolves a 1-based position or a case-insensitive name
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (domain.LibraryJob, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return domain.LibraryJob{}, err
	}

	if idx, ok := domain.IndexFromIdentifier(identifier, len(jobs)); ok {
		return jobs[idx], nil
	}

	for _, job := range jobs {
		if domain.MatchesName(identifier, job.Name) {
			return job, nil
		}
	}

	return domain.LibraryJob{}, fmt.Errorf("%w: '%s'", domain.ErrLibraryJobNotFound, identifier)
}

// CloneIntoQueue appends a pending copy of template to the queue. A
// pre-generated artifact is copied into the staging directory when possible;
// otherwise the new job has no generated file and is regenerated on execution.
// The template itself is left untouched.
func (s *Store) CloneIntoQueue(ctx context.Context, template domain.LibraryJob) (domain.JobRecord, error) {
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return domain.JobRecord{}, fmt.Errorf("%w: failed to create staging directory: %w", domain.ErrStorageUnavailable, err)
	}

	target := filepath.Join(s.stagingDir,
		fmt.Sprintf("%s_CLI_Import_%d.3mf", SafeName(template.Name), s.now().Unix()))

	job := template.JobRecord.Copy()
	job.GeneratedFile = ""
	job.Status = domain.JobStatusPending

	if template.GeneratedFile != "" {
		if err := copyArtifact(template.GeneratedFile, target); err != nil {
			s.logger.Warn("Pre-generated file not staged, job will be regenerated",
				slog.String("job", template.Name),
				slog.String("generated_file", template.GeneratedFile),
				slog.String("error", err.Error()),
			)
		} else {
			job.GeneratedFile = target
		}
	}

	if err := s.queue.Append(ctx, job); err != nil {
		return domain.JobRecord{}, fmt.Errorf("failed to clone '%s' into queue: %w", template.Name, err)
	}

	s.logger.Info("Library job cloned into queue",
		slog.String("job", template.Name),
		slog.String("generated_file", job.GeneratedFile),
	)

	return job, nil
}

// SafeName keeps letters, digits, spaces, hyphens and underscores of name
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
