// ABOUTME: Baseline store abstraction keyed by prompt identifier
// ABOUTME: Backends: in-memory, SQLite file, Charm cloud-synced KV
package baseline

import (
	"context"
	"errors"

	"github.com/harper/driftcheck/internal/models"
)

var (
	// ErrNotFound is returned when no baseline exists for a prompt
	ErrNotFound = errors.New("baseline not found")

	// ErrExists is returned when establishing a baseline that is already present
	ErrExists = errors.New("baseline already exists")

	// ErrClosed is returned by a store used after Close
	ErrClosed = errors.New("baseline store is closed")
)

// Store persists baseline entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for promptID or ErrNotFound
	Get(ctx context.Context, promptID string) (*models.BaselineEntry, error)

	// Set inserts or replaces the entry for entry.PromptID
	Set(ctx context.Context, entry *models.BaselineEntry) error

	// List returns all entries ordered by prompt ID
	List(ctx context.Context) ([]*models.BaselineEntry, error)

	// Delete removes the entry for promptID or returns ErrNotFound
	Delete(ctx context.Context, promptID string) error

	// Close releases the backend
	Close() error
}

func cloneEntry(e *models.BaselineEntry) *models.BaselineEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Vector != nil {
		c.Vector = append([]float64(nil), e.Vector...)
	}
	return &c
}
