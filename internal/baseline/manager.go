// ABOUTME: Baseline lifecycle: explicit establish and explicit re-baseline
// ABOUTME: Nothing here ever creates or replaces a baseline as a side effect of comparison
package baseline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harper/driftcheck/internal/models"
	"github.com/harper/driftcheck/internal/similarity"
)

// Manager creates and replaces baselines in a Store
type Manager struct {
	store  Store
	scorer *similarity.Scorer
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithVectors stores the scorer's embedding alongside each baseline text
func WithVectors(scorer *similarity.Scorer) ManagerOption {
	return func(m *Manager) {
		m.scorer = scorer
	}
}

// WithManagerLogger sets the logger
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a baseline manager over store
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store
func (m *Manager) Store() Store {
	return m.store
}

// Establish records text as the first baseline for promptID.
// Returns ErrExists if one is already present.
func (m *Manager) Establish(ctx context.Context, promptID, text string) (*models.BaselineEntry, error) {
	if err := validatePromptID(promptID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.store.Get(ctx, promptID)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, promptID)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := m.now().UTC()
	entry := &models.BaselineEntry{
		ID:        uuid.New().String(),
		PromptID:  promptID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.attachVector(entry); err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, entry); err != nil {
		return nil, err
	}

	m.logger.Info("baseline established", "prompt_id", promptID, "id", entry.ID, "with_vector", entry.HasVector())
	return entry, nil
}

// Rebaseline replaces the baseline text for promptID, keeping its ID and creation time.
// Returns ErrNotFound if no baseline has been established.
func (m *Manager) Rebaseline(ctx context.Context, promptID, text string) (*models.BaselineEntry, error) {
	if err := validatePromptID(promptID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, err := m.store.Get(ctx, promptID)
	if err != nil {
		return nil, err
	}

	entry.Text = text
	entry.Vector = nil
	entry.Model = ""
	entry.UpdatedAt = m.now().UTC()
	if err := m.attachVector(entry); err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, entry); err != nil {
		return nil, err
	}

	m.logger.Info("baseline replaced", "prompt_id", promptID, "id", entry.ID)
	return entry, nil
}

// Get returns the baseline for promptID or ErrNotFound
func (m *Manager) Get(ctx context.Context, promptID string) (*models.BaselineEntry, error) {
	return m.store.Get(ctx, promptID)
}

// List returns all baselines
func (m *Manager) List(ctx context.Context) ([]*models.BaselineEntry, error) {
	return m.store.List(ctx)
}

// Delete removes the baseline for promptID
func (m *Manager) Delete(ctx context.Context, promptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, promptID); err != nil {
		return err
	}
	m.logger.Info("baseline deleted", "prompt_id", promptID)
	return nil
}

func (m *Manager) attachVector(entry *models.BaselineEntry) error {
	if m.scorer == nil {
		return nil
	}
	vec, err := m.scorer.Embed(entry.Text)
	if err != nil {
		return fmt.Errorf("failed to embed baseline %s: %w", entry.PromptID, err)
	}
	entry.Vector = vec
	entry.Model = m.scorer.Model()
	return nil
}

func validatePromptID(promptID string) error {
	if strings.TrimSpace(promptID) == "" {
		return fmt.Errorf("prompt id is required")
	}
	return nil
}
