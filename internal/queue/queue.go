package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/internal/store"
)

// Store owns the ordered print queue. It is the only writer of job status.
//
// Entries are persisted as the raw JSON objects found in storage: the queue
// file is shared with the desktop application, so fields this package does
// not model and values it would default are written back untouched. Only
// the entry being appended or marked done is encoded by this package.
//
// Writes are serialized within the process; separate processes still race.
type Store struct {
	mu      sync.Mutex
	records store.RecordStore[json.RawMessage]
	logger  *slog.Logger
}

// NewStore creates a queue over the given record storage
func NewStore(records store.RecordStore[json.RawMessage], logger *slog.Logger) *Store {
	return &Store{
		records: records,
		logger:  logger,
	}
}

// List returns the queue in order with defaults applied
func (s *Store) List(ctx context.Context) ([]domain.JobRecord, error) {
	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.JobRecord, len(entries))
	for i, raw := range entries {
		jobs[i] = s.decode(raw, i)
	}

	return jobs, nil
}

func (s *Store) load(ctx context.Context) ([]json.RawMessage, error) {
	entries, err := s.records.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return entries, nil
}

// decode returns the normalized record of one entry. An entry that is not a
// job record keeps its position and is listed with defaults.
func (s *Store) decode(raw json.RawMessage, position int) domain.JobRecord {
	var job domain.JobRecord
	if err := json.Unmarshal(raw, &job); err != nil {
		s.logger.Warn("Queue entry is not a job record",
			slog.String("location", s.records.Location()),
			slog.Int("position", position+1),
			slog.String("error", err.Error()),
		)
		job = domain.JobRecord{}
	}

	job.Normalize()
	return job
}

// Append adds job at the end of the queue and persists immediately
func (s *Store) Append(ctx context.Context, job domain.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return err
	}

	job.Normalize()
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: failed to encode job '%s': %w", domain.ErrStorageUnavailable, job.Name, err)
	}
	entries = append(entries, raw)

	if err := s.records.Save(ctx, entries); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}

	s.logger.Info("Job appended to queue",
		slog.String("job", job.Name),
		slog.Int("position", len(entries)),
		slog.Int("copies", job.Copies),
	)

	return nil
}

// FindByIdentifier resolves a 1-based position or a case-insensitive job name.
// It returns the job and its 0-based position.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (domain.JobRecord, int, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return domain.JobRecord{}, -1, err
	}

	if idx, ok := domain.IndexFromIdentifier(identifier, len(jobs)); ok {
		return jobs[idx], idx, nil
	}

	for i, job := range jobs {
		if domain.MatchesName(identifier, job.Name) {
			return job, i, nil
		}
	}

	return domain.JobRecord{}, -1, fmt.Errorf("%w: '%s'", domain.ErrJobNotFound, identifier)
}

// MarkDone records a successful execution of the entry at position on the
// printer with targetSerial. Infinite jobs are never done, so for them the
// call leaves the queue untouched. Only status and target_serial of the
// entry are rewritten.
func (s *Store) MarkDone(ctx context.Context, position int, targetSerial string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return err
	}

	if position < 0 || position >= len(entries) {
		return fmt.Errorf("%w: position %d", domain.ErrJobNotFound, position+1)
	}

	job := s.decode(entries[position], position)
	if job.IsInfinite() {
		s.logger.Debug("Infinite job stays pending",
			slog.String("job", job.Name),
			slog.Int("position", position+1),
		)
		return nil
	}

	patched, err := setFields(entries[position], map[string]any{
		"status":        domain.JobStatusDone,
		"target_serial": targetSerial,
	})
	if err != nil {
		return fmt.Errorf("%w: queue entry %d: %w", domain.ErrStorageUnavailable, position+1, err)
	}
	entries[position] = patched

	if err := s.records.Save(ctx, entries); err != nil {
		return fmt.Errorf("failed to save queue: %w", err)
	}

	s.logger.Info("Job marked done",
		slog.String("job", job.Name),
		slog.Int("position", position+1),
		slog.String("target_serial", targetSerial),
	)

	return nil
}

// setFields overwrites the given keys of a JSON object, keeping every other key
func setFields(raw json.RawMessage, values map[string]any) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, len(values))
	}

	for key, value := range values {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}

	return json.Marshal(fields)
}

// AddRequest describes a model file to enqueue
type AddRequest struct {
	SourceFile string
	Name       string // defaults to the file name without extension
	Copies     int    // -1 for infinite
	UseSweep   bool
}

// Add builds a pending job from a model file on disk and appends it
func (s *Store) Add(ctx context.Context, req AddRequest) (domain.JobRecord, error) {
	if _, err := os.Stat(req.SourceFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.JobRecord{}, fmt.Errorf("%w: %s", domain.ErrSourceFileNotFound, req.SourceFile)
		}
		return domain.JobRecord{}, fmt.Errorf("failed to stat %s: %w", req.SourceFile, err)
	}

	abs, err := filepath.Abs(req.SourceFile)
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("failed to resolve %s: %w", req.SourceFile, err)
	}

	name := req.Name
	if name == "" {
		base := filepath.Base(abs)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	job := domain.JobRecord{
		Name:         name,
		SourceFile:   abs,
		Copies:       req.Copies,
		UseSweep:     domain.Bool(req.UseSweep),
		UseCooldown:  false,
		CooldownTemp: domain.Int(domain.DefaultCooldownTemp),
		Status:       domain.JobStatusPending,
	}

	if err := job.Validate(); err != nil {
		return domain.JobRecord{}, err
	}

	if err := s.Append(ctx, job); err != nil {
		return domain.JobRecord{}, err
	}

	return job, nil
}
