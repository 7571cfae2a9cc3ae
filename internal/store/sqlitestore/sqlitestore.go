// Package sqlitestore keeps slot entries in a single-table SQLite database.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// DB is an open key-value database. Slot returns per-key views of it.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Slot returns the entry stored under key.
func (d *DB) Slot(key string) *Slot {
	return &Slot{db: d.db, key: key}
}

type Slot struct {
	db  *sql.DB
	key string
}

func (s *Slot) Load() ([]byte, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, s.key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.key, err)
	}
	return []byte(v), nil
}

func (s *Slot) Save(data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		s.key, string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", s.key, err)
	}
	return nil
}
