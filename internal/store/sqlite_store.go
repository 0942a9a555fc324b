// Package store provides the key-value persistence media for okai.
// SQLiteMedium uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteMedium is a Medium backed by a single SQLite table.
// Thread-safe for concurrent WASM callbacks and CLI goroutines.
type SQLiteMedium struct {
	mu       sync.RWMutex
	db       *sql.DB
	capacity int64
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// NewSQLiteMedium creates a new in-memory SQLite medium.
func NewSQLiteMedium(capacity int64) (*SQLiteMedium, error) {
	return NewSQLiteMediumWithDSN(":memory:", capacity)
}

// NewSQLiteMediumWithDSN creates a medium with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteMediumWithDSN(dsn string, capacity int64) (*SQLiteMedium, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteMedium{db: db, capacity: capacity}, nil
}

// Close closes the database connection.
func (s *SQLiteMedium) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteMedium) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value. The quota check and the write share one transaction.
func (s *SQLiteMedium) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if s.capacity > 0 {
		var others int64
		err := tx.QueryRow(`
			SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0)
			FROM kv WHERE key != ?
		`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("measure usage: %w", err)
		}
		if next := others + Size(key, value); next > s.capacity {
			return fmt.Errorf("set %q (%d bytes, capacity %d): %w", key, next, s.capacity, ErrQuotaExceeded)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLiteMedium) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteMedium) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Stats reports usage. VecVersion is empty when the sqlite-vec
// extension is not available in the loaded SQLite build.
func (s *SQLiteMedium) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Capacity: s.capacity}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM kv
	`).Scan(&st.Keys, &st.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	var vec string
	if err := s.db.QueryRow(`SELECT vec_version()`).Scan(&vec); err == nil {
		st.VecVersion = vec
	}
	return st, nil
}

type exportData struct {
	Entries []Entry `json:"entries"`
}

// Export serializes every entry to JSON bytes.
// This is a portable export that doesn't depend on sqlite3 serialization APIs.
func (s *SQLiteMedium) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT key, value FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer rows.Close()

	data := exportData{Entries: []Entry{}}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		data.Entries = append(data.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// Import replaces the medium's contents with an exported JSON byte slice.
// The quota is not enforced on import.
func (s *SQLiteMedium) Import(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		return nil
	}

	var in exportData
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("import unmarshal: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("clear kv: %w", err)
	}
	now := time.Now().UnixMilli()
	for _, e := range in.Entries {
		if _, err := tx.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`, e.Key, e.Value, now); err != nil {
			return fmt.Errorf("import %q: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

// Compile-time interface check
var _ Medium = (*SQLiteMedium)(nil)
