package baseline

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harper/driftcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV stands in for a charm database without touching the network
type fakeKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	syncs  int
	resets int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Set(key, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) Get(key []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[string(key)]
	if !ok {
		return nil, badger.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *fakeKV) Delete(key []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, string(key))
	return nil
}

func (f *fakeKV) Keys() ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out, nil
}

func (f *fakeKV) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	return nil
}

func (f *fakeKV) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.data = make(map[string][]byte)
	return nil
}

func (f *fakeKV) Close() error { return nil }

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := OpenSQLiteInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
		"charm":  newCharmStore(newFakeKV(), true),
	}
}

func sampleEntry(promptID, text string) *models.BaselineEntry {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.BaselineEntry{
		ID:        "id-" + promptID,
		PromptID:  promptID,
		Text:      text,
		Vector:    []float64{0.25, -0.5, 1e-9},
		Model:     "hash-3",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()

	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "greeting")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, sampleEntry("greeting", "Hello there!")))
			require.NoError(t, store.Set(ctx, sampleEntry("farewell", "Goodbye.")))

			got, err := store.Get(ctx, "greeting")
			require.NoError(t, err)
			assert.Equal(t, "Hello there!", got.Text)
			assert.Equal(t, "id-greeting", got.ID)
			assert.Equal(t, []float64{0.25, -0.5, 1e-9}, got.Vector)
			assert.Equal(t, "hash-3", got.Model)
			assert.True(t, got.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

			// Replace
			updated := sampleEntry("greeting", "Hi!")
			updated.Vector = nil
			updated.Model = ""
			require.NoError(t, store.Set(ctx, updated))
			got, err = store.Get(ctx, "greeting")
			require.NoError(t, err)
			assert.Equal(t, "Hi!", got.Text)
			assert.False(t, got.HasVector())

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "farewell", list[0].PromptID)
			assert.Equal(t, "greeting", list[1].PromptID)

			require.NoError(t, store.Delete(ctx, "farewell"))
			assert.ErrorIs(t, store.Delete(ctx, "farewell"), ErrNotFound)
			_, err = store.Get(ctx, "farewell")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.Set(ctx, nil))
			assert.Error(t, store.Set(ctx, &models.BaselineEntry{ID: "x"}))
			assert.Error(t, store.Set(ctx, &models.BaselineEntry{PromptID: "x"}))
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := sampleEntry("p", "text")
	require.NoError(t, store.Set(ctx, entry))
	entry.Vector[0] = 99

	got, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0.25, got.Vector[0])

	got.Text = "mutated"
	again, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "text", again.Text)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "baselines.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, sampleEntry("p", "persisted")))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Text)
	assert.Equal(t, path, reopened.Path())
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float64{0, 1, -1, 3.14159, 1e-300}
	assert.Equal(t, vec, blobToVector(vectorToBlob(vec)))
	assert.Empty(t, blobToVector(nil))
}

func TestCharmStore_SyncsAfterWrites(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store := newCharmStore(kv, true)

	require.NoError(t, store.Set(ctx, sampleEntry("p", "x")))
	require.NoError(t, store.Delete(ctx, "p"))
	assert.Equal(t, 2, kv.syncs)

	quiet := newCharmStore(newFakeKV(), false)
	require.NoError(t, quiet.Set(ctx, sampleEntry("p", "x")))
	assert.Zero(t, quiet.kv.(*fakeKV).syncs)
}

func TestCharmStore_IgnoresForeignKeys(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	require.NoError(t, kv.Set([]byte("other:thing"), []byte("{}")))
	store := newCharmStore(kv, false)
	require.NoError(t, store.Set(ctx, sampleEntry("p", "x")))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p", list[0].PromptID)
	assert.Equal(t, "baseline:p", Key("p"))

	require.NoError(t, store.Reset())
	n, err = store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCharmStore_UseAfterClose(t *testing.T) {
	ctx := context.Background()
	store := newCharmStore(newFakeKV(), true)
	require.NoError(t, store.Set(ctx, sampleEntry("p", "x")))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Get(ctx, "p")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set(ctx, sampleEntry("q", "y")), ErrClosed)
	assert.ErrorIs(t, store.Delete(ctx, "p"), ErrClosed)
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.Count()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Sync(), ErrClosed)
	assert.ErrorIs(t, store.Reset(), ErrClosed)
}

func TestDefaultDBPath_UsesXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, "/tmp/xdg-data/driftcheck/baselines.db", DefaultDBPath())
}
