// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	// Register the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteCache is a Cache stored in a single-table SQLite database.
type SQLiteCache struct {
	db *sql.DB
}

var _ Cache = (*SQLiteCache)(nil)

// OpenSQLite opens or creates the cache database at path, creating parent
// directories as needed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Code("SESSION_CACHE_INVALID").Errorf("session cache path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o700); err != nil {
		return nil, oops.Code("SESSION_CACHE_OPEN_FAILED").With("path", clean).Wrap(err)
	}

	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, oops.Code("SESSION_CACHE_OPEN_FAILED").With("path", clean).Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.Code("SESSION_CACHE_OPEN_FAILED").With("path", clean).Wrap(err)
	}
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		_ = db.Close()
		return nil, oops.Code("SESSION_CACHE_OPEN_FAILED").
			With("path", clean).
			With("operation", "create kv table").
			Wrap(err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Load implements Cache.
func (c *SQLiteCache) Load(ctx context.Context) (Snapshot, error) {
	var authenticated bool
	found, err := c.get(ctx, KeyAuthenticated, &authenticated)
	if err != nil || !found || !authenticated {
		return Snapshot{}, err
	}

	snap := Snapshot{Authenticated: true}
	if _, err := c.get(ctx, KeyIdentity, &snap.Identity); err != nil {
		return Snapshot{}, err
	}
	if _, err := c.get(ctx, KeySecret, &snap.Secret); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// get decodes the value stored under key into dst. A JSON null leaves dst
// untouched.
func (c *SQLiteCache) get(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("SESSION_CACHE_FAILED").With("operation", "read").With("key", key).Wrap(err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, oops.Code("SESSION_CACHE_CORRUPT").With("key", key).Wrap(err)
	}
	return true, nil
}

// Save implements Cache. The three keys are written in one transaction.
func (c *SQLiteCache) Save(ctx context.Context, snap Snapshot) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyAuthenticated, snap.Authenticated},
		{KeyIdentity, snap.Identity},
		{KeySecret, snap.Secret},
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("SESSION_CACHE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, kv := range values {
		encoded, err := json.Marshal(kv.value)
		if err != nil {
			return oops.Code("SESSION_CACHE_FAILED").With("operation", "encode").With("key", kv.key).Wrap(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			kv.key, string(encoded)); err != nil {
			return oops.Code("SESSION_CACHE_FAILED").With("operation", "write").With("key", kv.key).Wrap(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("SESSION_CACHE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}

// Clear implements Cache.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key IN (?, ?, ?)`,
		KeyAuthenticated, KeyIdentity, KeySecret)
	if err != nil {
		return oops.Code("SESSION_CACHE_FAILED").With("operation", "clear").Wrap(err)
	}
	return nil
}
