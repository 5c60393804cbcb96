// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package postgres stores the credential indexes and notes in PostgreSQL.
//
// The forward index lives in the usernames table, the inverse index in the
// passwords table (one row per secret/identity pair) and notes in the notes
// table. The tables carry no foreign keys: the two indexes are written
// independently and may disagree after a partial registration.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
)

// poolIface is the subset of pgxpool.Pool used by Store. pgxmock satisfies it.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store implements credential.Store, credential.InverseScanner and
// notes.Store on PostgreSQL.
type Store struct {
	pool poolIface
}

var (
	_ credential.Store          = (*Store)(nil)
	_ credential.InverseScanner = (*Store)(nil)
)

// New wraps an existing pool.
func New(pool poolIface) *Store {
	return &Store{pool: pool}
}

// Open connects to databaseURL and waits until the server answers a ping.
func Open(ctx context.Context, databaseURL string, timeout time.Duration) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("driver", "postgres").
			Wrap(err)
	}
	if err := credential.WaitReady(ctx, timeout, pool.Ping); err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("driver", "postgres").
			Hint("check store.postgres.url and that the server is reachable").
			Wrap(err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.fail("ping", s.pool.Ping(ctx))
}

// fail classifies a driver error. A missing table means the schema was never
// migrated, which gets its own code and hint.
func (s *Store) fail(operation string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return oops.Code("STORE_SCHEMA_MISSING").
			With("operation", operation).
			With("table", pgErr.TableName).
			Hint("run `peyp migrate` to create the schema").
			Wrap(fmt.Errorf("%w: %w", credential.ErrTransport, err))
	}
	return credential.TransportError(operation, err)
}

// GetSecret implements credential.Store.
func (s *Store) GetSecret(ctx context.Context, identity string) (string, bool, error) {
	var secret string
	err := s.pool.QueryRow(ctx,
		`SELECT secret FROM usernames WHERE identity = $1`,
		identity).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail("get secret", err)
	}
	return secret, true, nil
}

// GetIdentitiesBySecret implements credential.Store. Identities are ordered
// bytewise so the result matches the key order of the other stores.
func (s *Store) GetIdentitiesBySecret(ctx context.Context, secret string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT identity FROM passwords WHERE secret = $1
		 ORDER BY identity COLLATE "C" LIMIT $2`,
		secret, limit)
	if err != nil {
		return nil, s.fail("get identities by secret", err)
	}
	defer rows.Close()

	identities := make([]string, 0)
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, s.fail("scan identity row", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("iterate identities", err)
	}
	return identities, nil
}

// SetSecret implements credential.Store.
func (s *Store) SetSecret(ctx context.Context, identity, secret string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usernames (identity, secret, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (identity) DO UPDATE SET secret = $2, updated_at = now()`,
		identity, secret)
	return s.fail("set secret", err)
}

// SetInverseMembership implements credential.Store.
func (s *Store) SetInverseMembership(ctx context.Context, secret, identity string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO passwords (secret, identity, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (secret, identity) DO NOTHING`,
		secret, identity)
	return s.fail("set inverse membership", err)
}

// ScanForward implements credential.InverseScanner. The cursor is the last
// identity of the previous page.
func (s *Store) ScanForward(ctx context.Context, cursor string, count int) ([]credential.Entry, string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT identity, secret FROM usernames
		 WHERE identity COLLATE "C" > $1
		 ORDER BY identity COLLATE "C" LIMIT $2`,
		cursor, count+1)
	if err != nil {
		return nil, "", s.fail("scan forward index", err)
	}
	defer rows.Close()

	var entries []credential.Entry
	for rows.Next() {
		var e credential.Entry
		if err := rows.Scan(&e.Identity, &e.Secret); err != nil {
			return nil, "", s.fail("scan forward row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", s.fail("iterate forward index", err)
	}

	next := ""
	if len(entries) > count {
		entries = entries[:count]
		next = entries[count-1].Identity
	}
	return entries, next, nil
}

// IsInverseMember implements credential.InverseScanner.
func (s *Store) IsInverseMember(ctx context.Context, secret, identity string) (bool, error) {
	var member bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passwords WHERE secret = $1 AND identity = $2)`,
		secret, identity).Scan(&member)
	if err != nil {
		return false, s.fail("probe inverse membership", err)
	}
	return member, nil
}

// GetNote implements notes.Store.
func (s *Store) GetNote(ctx context.Context, identity string) (string, bool, error) {
	var body string
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM notes WHERE identity = $1`,
		identity).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail("get note", err)
	}
	return body, true, nil
}

// SetNote implements notes.Store.
func (s *Store) SetNote(ctx context.Context, identity, text string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notes (identity, body, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (identity) DO UPDATE SET body = $2, updated_at = now()`,
		identity, text)
	return s.fail("set note", err)
}
