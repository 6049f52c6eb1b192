package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/printq/internal/domain"
	"github.com/cuongbtq/printq/shared/database"
	"github.com/jmoiron/sqlx"
)

const recordsSchema = `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT    NOT NULL,
		position   INTEGER NOT NULL,
		body       TEXT    NOT NULL,
		PRIMARY KEY (collection, position)
	)
`

// SQLStore keeps a collection as rows of a shared records table, one JSON body
// per row, ordered by position
type SQLStore[T any] struct {
	db         *sqlx.DB
	collection string
	logger     *slog.Logger
}

// NewSQLStore creates the records table if needed and returns a store for one
// named collection
func NewSQLStore[T any](ctx context.Context, client *database.Client, collection string, logger *slog.Logger) (*SQLStore[T], error) {
	db := client.GetDB()

	if _, err := db.ExecContext(ctx, recordsSchema); err != nil {
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &SQLStore[T]{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

// Load reads the collection ordered by position
func (s *SQLStore[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bodies []string
	query := s.db.Rebind(`SELECT body FROM records WHERE collection = ? ORDER BY position`)
	if err := s.db.SelectContext(ctx, &bodies, query, s.collection); err != nil {
		s.logger.Warn("Failed to read collection, using empty collection",
			slog.String("collection", s.collection),
			slog.String("error", err.Error()),
		)
		return make([]T, 0), nil
	}

	records := make([]T, 0, len(bodies))
	for i, body := range bodies {
		var record T
		if err := json.Unmarshal([]byte(body), &record); err != nil {
			s.logger.Warn("Collection row is not valid JSON, using empty collection",
				slog.String("collection", s.collection),
				slog.Int("position", i),
				slog.String("error", err.Error()),
			)
			return make([]T, 0), nil
		}
		records = append(records, record)
	}

	return records, nil
}

// Save replaces the collection in a single transaction
func (s *SQLStore[T]) Save(ctx context.Context, records []T) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM records WHERE collection = ?`), s.collection); err != nil {
		return fmt.Errorf("%w: failed to clear collection %s: %w", domain.ErrStorageUnavailable, s.collection, err)
	}

	insert := tx.Rebind(`INSERT INTO records (collection, position, body) VALUES (?, ?, ?)`)
	for i, record := range records {
		body, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("%w: failed to encode record %d: %w", domain.ErrStorageUnavailable, i, err)
		}
		if _, err := tx.ExecContext(ctx, insert, s.collection, i, string(body)); err != nil {
			return fmt.Errorf("%w: failed to insert record %d: %w", domain.ErrStorageUnavailable, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit collection",
			slog.String("collection", s.collection),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: failed to commit collection %s: %w", domain.ErrStorageUnavailable, s.collection, err)
	}

	s.logger.Debug("Collection saved",
		slog.String("collection", s.collection),
		slog.Int("records", len(records)),
	)

	return nil
}

// Location returns a driver-qualified collection name
func (s *SQLStore[T]) Location() string {
	return s.db.DriverName() + ":" + s.collection
}
