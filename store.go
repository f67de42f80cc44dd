package szprechal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists user stats and per-mode mastered-item lists as JSON blobs
// in a small key-value table. Writes are whole-record replacements, so the
// consistency model is last-write-wins.
type Store struct {
	db *sql.DB
}

const statsKey = "user_stats"

// masteredKey returns the storage key for one mode's mastered-item list.
func masteredKey(mode Mode) string {
	return "mastered_" + strings.ToLower(string(mode))
}

// OpenStore opens (and if needed creates) the store at the given path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute %s: %w", query, err)
	}
	return nil
}

// get reads one raw JSON blob. A missing key returns ("", nil).
func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// set replaces one blob in a single statement.
func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// LoadStats returns the persisted progress record, or the default record if
// nothing has been written yet.
func (s *Store) LoadStats() (UserStats, error) {
	raw, err := s.get(statsKey)
	if err != nil {
		return DefaultStats(), err
	}
	if raw == "" {
		return DefaultStats(), nil
	}

	var stats UserStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return DefaultStats(), fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	if !stats.Level.Valid() {
		stats.Level = DifficultyA1
	}
	return stats, nil
}

// SaveStats replaces the persisted progress record.
func (s *Store) SaveStats(stats UserStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return s.set(statsKey, string(data))
}

// MasteredItems returns the mastered-item list for one mode. The list is an
// ordered sequence; uniqueness is not enforced.
func (s *Store) MasteredItems(mode Mode) ([]string, error) {
	raw, err := s.get(masteredKey(mode))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mastered items: %w", err)
	}
	return items, nil
}

// RecordMastered appends one item to a mode's mastered list and persists the
// whole list. When to call this is the surrounding application's decision.
func (s *Store) RecordMastered(mode Mode, item string) error {
	if item == "" {
		return fmt.Errorf("mastered item must not be empty")
	}

	items, err := s.MasteredItems(mode)
	if err != nil {
		return err
	}
	items = append(items, item)

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal mastered items: %w", err)
	}
	return s.set(masteredKey(mode), string(data))
}
