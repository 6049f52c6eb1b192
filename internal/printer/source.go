package printer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cuongbtq/printq/internal/domain"
)

// Source supplies the ordered list of configured printers
type Source interface {
	Printers(ctx context.Context) ([]domain.PrinterConfig, error)
}

// StaticSource serves a fixed list
type StaticSource []domain.PrinterConfig

// Printers returns the list
func (s StaticSource) Printers(context.Context) ([]domain.PrinterConfig, error) {
	return s, nil
}

// ConfigSource combines printers from a JSON file maintained by the desktop
// application with printers declared inline in the YAML config. File entries
// come first so indexes match what the desktop application shows.
type ConfigSource struct {
	file   string
	inline []domain.PrinterConfig
	logger *slog.Logger
}

// NewConfigSource creates a source; file may be empty
func NewConfigSource(file string, inline []domain.PrinterConfig, logger *slog.Logger) *ConfigSource {
	return &ConfigSource{
		file:   file,
		inline: inline,
		logger: logger,
	}
}

// Printers reads the printers file on every call so edits made by the desktop
// application are picked up without restarting
func (s *ConfigSource) Printers(ctx context.Context) ([]domain.PrinterConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	printers := make([]domain.PrinterConfig, 0, len(s.inline))

	if s.file != "" {
		fromFile, err := readPrintersFile(s.file)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Debug("Printers file does not exist",
				slog.String("path", s.file),
			)
		case err != nil:
			s.logger.Warn("Ignoring unreadable printers file",
				slog.String("path", s.file),
				slog.String("error", err.Error()),
			)
		default:
			printers = append(printers, fromFile...)
		}
	}

	return append(printers, s.inline...), nil
}

// readPrintersFile accepts a JSON array of printers, an object with a
// "printers" array, or a single printer object from older releases
func readPrintersFile(path string) ([]domain.PrinterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []domain.PrinterConfig
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Printers []domain.PrinterConfig `json:"printers"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Printers != nil {
		return wrapped.Printers, nil
	}

	var single domain.PrinterConfig
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse printers file: %w", err)
	}
	if single.Serial == "" && single.IP == "" {
		return nil, fmt.Errorf("printers file has no printer entries")
	}

	return []domain.PrinterConfig{single}, nil
}
