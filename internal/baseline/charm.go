// ABOUTME: Charm KV baseline store for cloud-synced baselines shared across machines
// ABOUTME: Entries are JSON values under the baseline: key prefix, synced after each write
package baseline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	json "github.com/goccy/go-json"
	"github.com/harper/driftcheck/internal/models"
)

// KeyPrefix namespaces baseline entries inside the charm database
const KeyPrefix = "baseline:"

// CharmConfig holds charm client configuration
type CharmConfig struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultCharmConfig returns default configuration for the charm store
func DefaultCharmConfig() *CharmConfig {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &CharmConfig{
		Host:     host,
		DBName:   "driftcheck",
		AutoSync: true,
	}
}

// kvBackend is the subset of *kv.KV the store uses
type kvBackend interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
}

// CharmStore keeps baselines in a charm KV database
type CharmStore struct {
	kv       kvBackend
	autoSync bool
	mu       sync.Mutex
}

var _ Store = (*CharmStore)(nil)

// OpenCharm opens the charm KV database named in cfg, pulling remote data when AutoSync is set
func OpenCharm(cfg *CharmConfig) (*CharmStore, error) {
	if cfg == nil {
		cfg = DefaultCharmConfig()
	}

	// The charm client reads its server from the environment
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	s := newCharmStore(db, cfg.AutoSync)
	if cfg.AutoSync {
		_ = db.Sync()
	}
	return s, nil
}

func newCharmStore(backend kvBackend, autoSync bool) *CharmStore {
	return &CharmStore{kv: backend, autoSync: autoSync}
}

// Key returns the KV key for a prompt's baseline
func Key(promptID string) string {
	return KeyPrefix + promptID
}

func (s *CharmStore) Get(ctx context.Context, promptID string) (*models.BaselineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil, ErrClosed
	}

	data, err := s.kv.Get([]byte(Key(promptID)))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline %s: %w", promptID, err)
	}

	var entry models.BaselineEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode baseline %s: %w", promptID, err)
	}
	return &entry, nil
}

func (s *CharmStore) Set(ctx context.Context, entry *models.BaselineEntry) error {
	if entry == nil {
		return fmt.Errorf("baseline entry is required")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return ErrClosed
	}

	if err := s.kv.Set([]byte(Key(entry.PromptID)), data); err != nil {
		return fmt.Errorf("failed to set baseline %s: %w", entry.PromptID, err)
	}
	s.syncIfEnabled()
	return nil
}

func (s *CharmStore) List(ctx context.Context) ([]*models.BaselineEntry, error) {
	ids, err := s.promptIDs()
	if err != nil {
		return nil, err
	}

	entries := make([]*models.BaselineEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *CharmStore) Delete(ctx context.Context, promptID string) error {
	if _, err := s.Get(ctx, promptID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return ErrClosed
	}

	if err := s.kv.Delete([]byte(Key(promptID))); err != nil {
		return fmt.Errorf("failed to delete baseline %s: %w", promptID, err)
	}
	s.syncIfEnabled()
	return nil
}

// Sync manually triggers a sync with the charm server
func (s *CharmStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return ErrClosed
	}
	return s.kv.Sync()
}

// Reset wipes all local data
func (s *CharmStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return ErrClosed
	}
	return s.kv.Reset()
}

// Count returns the number of stored baselines
func (s *CharmStore) Count() (int, error) {
	ids, err := s.promptIDs()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Close closes the KV database
func (s *CharmStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	err := s.kv.Close()
	s.kv = nil
	return err
}

// CharmID returns the charm user ID of the local account
func CharmID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

func (s *CharmStore) promptIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil, ErrClosed
	}

	keys, err := s.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var ids []string
	for _, key := range keys {
		if id, ok := strings.CutPrefix(string(key), KeyPrefix); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// syncIfEnabled pushes to the server after writes; failures leave the local copy authoritative
func (s *CharmStore) syncIfEnabled() {
	if s.autoSync {
		_ = s.kv.Sync()
	}
}
