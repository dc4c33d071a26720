// Package history records pipeline triggers. Entries are written once and
// never updated: there is no build status polling.
package history

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotFound    = errors.New("history entry not found")
	ErrInvalidID   = errors.New("invalid history entry ID")
	ErrStoreClosed = errors.New("history store is closed")
)

// Store defines the interface for history storage operations.
type Store interface {
	// Add stores entry, assigning an ID when empty, and returns the ID.
	Add(ctx context.Context, entry Entry) (string, error)

	// Get retrieves a single entry by ID.
	Get(ctx context.Context, id string) (Entry, error)

	// List returns matching entries, newest first.
	List(ctx context.Context, opts QueryOptions) ([]Entry, error)

	// Count returns the number of matching entries, ignoring pagination.
	Count(ctx context.Context, opts QueryOptions) (int64, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close closes the store and releases resources.
	Close() error
}
