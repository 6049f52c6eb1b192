package printer

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/printq/internal/domain"
)

// Resolve picks one printer from configs. An empty identifier selects the
// first printer. Otherwise a 1-based index wins, then a case-insensitive
// serial or name match, checked printer by printer in configured order.
//
// A printer named like a small integer is shadowed by the index lookup.
func Resolve(identifier string, configs []domain.PrinterConfig) (domain.PrinterConfig, error) {
	if len(configs) == 0 {
		return domain.PrinterConfig{}, domain.ErrNoPrintersConfigured
	}

	if identifier == "" {
		return configs[0], nil
	}

	if idx, ok := domain.IndexFromIdentifier(identifier, len(configs)); ok {
		return configs[idx], nil
	}

	for _, cfg := range configs {
		if domain.MatchesName(identifier, cfg.Serial) || domain.MatchesName(identifier, cfg.Name) {
			return cfg, nil
		}
	}

	return domain.PrinterConfig{}, &domain.PrinterNotFoundError{
		Identifier: identifier,
		Available:  configs,
	}
}

// Resolver resolves identifiers against the printers of a Source
type Resolver struct {
	source Source
	logger *slog.Logger
}

// NewResolver creates a resolver reading printers from source
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logger,
	}
}

// Resolve loads the configured printers and resolves identifier among them
func (r *Resolver) Resolve(ctx context.Context, identifier string) (domain.PrinterConfig, error) {
	configs, err := r.source.Printers(ctx)
	if err != nil {
		return domain.PrinterConfig{}, err
	}

	cfg, err := Resolve(identifier, configs)
	if err != nil {
		r.logger.Debug("Printer resolution failed",
			slog.String("identifier", identifier),
			slog.Int("configured", len(configs)),
			slog.String("error", err.Error()),
		)
		return domain.PrinterConfig{}, err
	}

	r.logger.Debug("Printer resolved",
		slog.String("identifier", identifier),
		slog.String("name", cfg.Name),
		slog.String("serial", cfg.Serial),
	)

	return cfg, nil
}

// List returns every configured printer
func (r *Resolver) List(ctx context.Context) ([]domain.PrinterConfig, error) {
	return r.source.Printers(ctx)
}
