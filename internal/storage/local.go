// Package storage persists the client's local state: a flat key/value store
// that plays the role of browser localStorage, backed by SQLite.
package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Keys used by the session and the code cooldown.
const (
	KeyAccessToken      = "access_token"
	KeyUser             = "user"
	KeyOTPCooldownUntil = "otp_cooldown_until"
)

// Local is a persistent string key/value store
type Local struct {
	db *sql.DB
}

// Open opens (creating if needed) the storage database at dbPath.
// ":memory:" opens a throwaway in-memory store.
func Open(dbPath string) (*Local, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	// Single connection keeps an in-memory database alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Local{db: db}, nil
}

// Close closes the database connection
func (l *Local) Close() error {
	return l.db.Close()
}

// Get returns the value for key and whether it was present
func (l *Local) Get(key string) (string, bool, error) {
	var value string
	err := l.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (l *Local) Set(key, value string) error {
	_, err := l.db.Exec(`
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (l *Local) Remove(key string) error {
	if _, err := l.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// RemoveAll deletes every given key in one transaction
func (l *Local) RemoveAll(keys ...string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, key := range keys {
		if _, err := tx.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Keys lists the stored keys in sorted order
func (l *Local) Keys() ([]string, error) {
	rows, err := l.db.Query(`SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
