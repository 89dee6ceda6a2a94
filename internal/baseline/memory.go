// ABOUTME: In-process baseline store for tests and ephemeral MCP sessions
// ABOUTME: Entries are copied on the way in and out so callers cannot alias them
package baseline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harper/driftcheck/internal/models"
)

// MemoryStore keeps baselines in a map.
// Thread Safety: safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*models.BaselineEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*models.BaselineEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, promptID string) (*models.BaselineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[promptID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntry(e), nil
}

func (s *MemoryStore) Set(ctx context.Context, entry *models.BaselineEntry) error {
	if entry == nil {
		return fmt.Errorf("baseline entry is required")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.PromptID] = cloneEntry(entry)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*models.BaselineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.BaselineEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PromptID < out[j].PromptID
	})
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[promptID]; !ok {
		return ErrNotFound
	}
	delete(s.entries, promptID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
