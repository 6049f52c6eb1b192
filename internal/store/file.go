package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/moby/sys/atomicwriter"
)

// FileStore keeps a collection as a JSON array in a single file
type FileStore[T any] struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore[T any](path string, logger *slog.Logger) *FileStore[T] {
	return &FileStore[T]{
		path:   path,
		logger: logger,
	}
}

// Load reads the collection from disk
func (s *FileStore[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]T, 0)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Storage file does not exist yet",
				slog.String("path", s.path),
			)
		} else {
			s.logger.Warn("Failed to read storage file, using empty collection",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("Storage file is not valid JSON, using empty collection",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return make([]T, 0), nil
	}

	return records, nil
}

// Save writes the collection to a temporary file and renames it into place
func (s *FileStore[T]) Save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if records == nil {
		records = make([]T, 0)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory for %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}

	if err := atomicwriter.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Error("Failed to save storage file",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: failed to write %s: %w", domain.ErrStorageUnavailable, s.path, err)
	}

	s.logger.Debug("Storage file saved",
		slog.String("path", s.path),
		slog.Int("records", len(records)),
	)

	return nil
}

// Location returns the file path
func (s *FileStore[T]) Location() string {
	return s.path
}
