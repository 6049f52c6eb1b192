// Package store persists ordered collections of records. Order is significant:
// it defines the 1-based positions users address records by.
//
// Stores provide no locking. A caller that loads, mutates and saves a
// collection owns that sequence as its critical section; two processes doing
// so against the same storage race and the last writer wins.
package store

import "context"

// RecordStore loads and saves an ordered collection of records
type RecordStore[T any] interface {
	// Load returns the stored records. Absent or unparsable storage yields an
	// empty collection, not an error.
	Load(ctx context.Context) ([]T, error)

	// Save atomically replaces the stored collection, preserving order.
	Save(ctx context.Context, records []T) error

	// Location describes where the collection lives, for logs and messages.
	Location() string
}
