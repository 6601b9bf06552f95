// Package storage persists exemplar embedding vectors in SQLite so the
// semantic index can be rebuilt without re-embedding unchanged exemplars.
package storage

import (
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ExemplarVector is a cached embedding for one labeled exemplar text.
type ExemplarVector struct {
	ID        string
	Label     string
	Text      string
	Model     string
	Embedding []float32
	CreatedAt time.Time
}

// Store wraps a SQLite database holding the exemplar embedding cache.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "kadet.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// SaveExemplarVector inserts or replaces the cached embedding for one
// exemplar text under the given embedding model.
func (s *Store) SaveExemplarVector(v ExemplarVector) error {
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO exemplar_vectors (id, label, exemplar_text, model, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(exemplar_text, model) DO UPDATE SET
			label = excluded.label, embedding = excluded.embedding, created_at = excluded.created_at`,
		v.ID, v.Label, v.Text, v.Model, encodeFloat32s(v.Embedding), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving exemplar vector %s: %w", v.ID, err)
	}
	return nil
}

// GetExemplarVector returns the cached embedding for the given exemplar text
// and embedding model, or ErrNotFound.
func (s *Store) GetExemplarVector(text, model string) (ExemplarVector, error) {
	var v ExemplarVector
	var blob []byte
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, label, exemplar_text, model, embedding, created_at
		FROM exemplar_vectors WHERE exemplar_text = ? AND model = ?`, text, model,
	).Scan(&v.ID, &v.Label, &v.Text, &v.Model, &blob, &createdAt)
	if err == sql.ErrNoRows {
		return ExemplarVector{}, ErrNotFound
	}
	if err != nil {
		return ExemplarVector{}, err
	}

	v.Embedding, err = decodeFloat32s(blob)
	if err != nil {
		return ExemplarVector{}, fmt.Errorf("decoding embedding for %s: %w", v.ID, err)
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return ExemplarVector{}, fmt.Errorf("parsing created_at: %w", err)
	}
	v.CreatedAt = t
	return v, nil
}

// CountExemplarVectors returns the number of cached exemplar embeddings.
func (s *Store) CountExemplarVectors() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM exemplar_vectors").Scan(&count)
	return count, err
}

// PurgeExemplarVectors removes all cached embeddings. Used by the explicit
// index rebuild operation when the embedding model changes.
func (s *Store) PurgeExemplarVectors() error {
	_, err := s.db.Exec("DELETE FROM exemplar_vectors")
	return err
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
// Returns an error if the length is not a multiple of 4 (data corruption).
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
