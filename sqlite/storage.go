package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/muffle"
)

// Compile-time interface verification.
var _ muffle.Storage = (*Storage)(nil)

// Storage implements muffle.Storage on the kv table. Values are stored as
// JSON text.
type Storage struct {
	db *DB
}

// NewStorage creates a new Storage.
func NewStorage(db *DB) *Storage {
	return &Storage{db: db}
}

// Entry is a stored key with its value and last write time.
type Entry struct {
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// Get returns the values stored under keys. Missing keys are absent from the
// result.
func (s *Storage) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	var query strings.Builder
	query.WriteString("SELECT key, value FROM kv WHERE key IN (")
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString("?")
		args = append(args, k)
	}
	query.WriteString(")")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = json.RawMessage(value)
	}
	return values, rows.Err()
}

// Set stores every value in a single transaction. Values must be valid JSON.
func (s *Storage) Set(ctx context.Context, values map[string]json.RawMessage) error {
	for key, value := range values {
		if key == "" {
			return muffle.Errorf(muffle.EINVALID, "storage key required")
		}
		if !json.Valid(value) {
			return muffle.Errorf(muffle.EINVALID, "value for %q is not valid JSON", key)
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(value), now); err != nil {
			return fmt.Errorf("failed to store %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Delete removes key. Deleting a missing key returns ENOTFOUND.
func (s *Storage) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return muffle.Errorf(muffle.ENOTFOUND, "key %q not found", key)
	}
	return nil
}

// Entry returns key with its last write time.
func (s *Storage) Entry(ctx context.Context, key string) (*Entry, error) {
	var value, updatedAt string
	err := s.db.QueryRowContext(ctx, "SELECT value, updated_at FROM kv WHERE key = ?", key).Scan(&value, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, muffle.Errorf(muffle.ENOTFOUND, "key %q not found", key)
	}
	if err != nil {
		return nil, err
	}
	t, err := parseRFC3339(updatedAt, "updated_at")
	if err != nil {
		return nil, err
	}
	return &Entry{Key: key, Value: json.RawMessage(value), UpdatedAt: t}, nil
}
