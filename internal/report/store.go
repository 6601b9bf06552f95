package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one persisted analysis.
type Entry struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Response  string `json:"response"`
}

const timestampLayout = "2006-01-02 15:04:05"

// Store keeps analysis reports in a single JSON file, newest first. Entries
// are append-only: indices grow monotonically and existing entries are never
// rewritten. A mutex serializes writers within the process; cross-process
// coordination is out of scope.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore builds a store over the given file path. The file is created on
// first append.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Append persists a new report and returns the entry as written. The history
// is re-read on every call so the index stays monotonic even if the file was
// cleared or replaced between cycles.
func (s *Store) Append(response string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	next := 1
	for _, e := range history {
		if e.Index >= next {
			next = e.Index + 1
		}
	}

	entry := Entry{
		Index:     next,
		Timestamp: s.now().Format(timestampLayout),
		Response:  response,
	}
	updated := append([]Entry{entry}, history...)
	if err := s.write(updated); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns all persisted reports, newest first. A missing or unreadable
// file yields an empty history.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear removes the report file. Clearing an absent file is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear reports: %w", err)
	}
	return nil
}

// load reads the history off disk. Corruption is downgraded to an empty
// history: a damaged cache should not block new reports from being written.
func (s *Store) load() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("report history unreadable, starting fresh", "path", s.path, "error", err)
		}
		return nil
	}
	var history []Entry
	if err := json.Unmarshal(data, &history); err != nil {
		slog.Warn("report history corrupt, starting fresh", "path", s.path, "error", err)
		return nil
	}
	return history
}

// write replaces the file atomically via a temp file in the same directory,
// so readers never observe a partially written history.
func (s *Store) write(history []Entry) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".reports-*.json")
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write reports: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write reports: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write reports: %w", err)
	}
	return nil
}
