// ABOUTME: SQLite-backed baseline store for local, durable baselines
// ABOUTME: Uses modernc.org/sqlite for pure-Go SQLite support; vectors stored as BLOBs
package baseline

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/harper/driftcheck/internal/models"
	_ "modernc.org/sqlite"
)

// Schema creates the baselines table
const Schema = `
CREATE TABLE IF NOT EXISTS baselines (
    id TEXT PRIMARY KEY,
    prompt_id TEXT NOT NULL UNIQUE,
    text TEXT NOT NULL,
    vector BLOB,
    model TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_baselines_updated ON baselines(updated_at);
`

// SQLiteStore persists baselines in a SQLite database file
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// DefaultDataDir returns the default data directory following XDG base directory rules
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/driftcheck"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "driftcheck")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "baselines.db")
}

// OpenSQLite opens or creates a baseline database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// WAL lets the CLI read while a suite run writes
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newSQLiteStore(conn, path)
}

// OpenSQLiteInMemory creates an in-memory baseline database (for testing)
func OpenSQLiteInMemory() (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database
	conn.SetMaxOpenConns(1)

	return newSQLiteStore(conn, ":memory:")
}

func newSQLiteStore(conn *sql.DB, path string) (*SQLiteStore, error) {
	if _, err := conn.Exec(Schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{conn: conn, path: path}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, promptID string) (*models.BaselineEntry, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, prompt_id, text, vector, model, created_at, updated_at
		FROM baselines
		WHERE prompt_id = ?
	`, promptID)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline %s: %w", promptID, err)
	}
	return entry, nil
}

// Set saves or updates a baseline (upsert on prompt_id)
func (s *SQLiteStore) Set(ctx context.Context, entry *models.BaselineEntry) error {
	if entry == nil {
		return fmt.Errorf("baseline entry is required")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	var blob []byte
	if entry.HasVector() {
		blob = vectorToBlob(entry.Vector)
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO baselines (id, prompt_id, text, vector, model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(prompt_id) DO UPDATE SET
			id = excluded.id,
			text = excluded.text,
			vector = excluded.vector,
			model = excluded.model,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, entry.ID, entry.PromptID, entry.Text, blob, entry.Model, entry.CreatedAt.UTC(), entry.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save baseline %s: %w", entry.PromptID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*models.BaselineEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, prompt_id, text, vector, model, created_at, updated_at
		FROM baselines
		ORDER BY prompt_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list baselines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*models.BaselineEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan baseline: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, promptID string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM baselines WHERE prompt_id = ?`, promptID)
	if err != nil {
		return fmt.Errorf("failed to delete baseline %s: %w", promptID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.BaselineEntry, error) {
	var (
		entry models.BaselineEntry
		blob  []byte
		model sql.NullString
	)
	if err := row.Scan(&entry.ID, &entry.PromptID, &entry.Text, &blob, &model, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	if len(blob) > 0 {
		entry.Vector = blobToVector(blob)
	}
	entry.Model = model.String
	return &entry, nil
}

// vectorToBlob encodes a vector as little-endian float64 bits
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector decodes a BLOB written by vectorToBlob
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return vector
}
