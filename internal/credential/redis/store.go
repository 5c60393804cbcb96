// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package redis stores the credential indexes and notes in Redis using
// slash-separated key paths:
//
//	usernames/{identity}  STRING  the identity's secret
//	passwords/{secret}    ZSET    identities that registered with secret
//	notes/{identity}      STRING  the identity's note
//
// Inverse sets are sorted sets with every score 0, so ZRANGE returns
// members in lexicographic byte order.
package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
)

const (
	forwardPrefix = "usernames/"
	inversePrefix = "passwords/"
	notesPrefix   = "notes/"
)

// Options selects the Redis server.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store implements credential.Store, credential.InverseScanner and
// notes.Store on Redis.
type Store struct {
	client goredis.UniversalClient
}

var (
	_ credential.Store          = (*Store)(nil)
	_ credential.InverseScanner = (*Store)(nil)
)

// New wraps an existing client.
func New(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// Open dials the server described by opts and waits for it to answer.
func Open(ctx context.Context, opts Options, timeout time.Duration) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := credential.WaitReady(ctx, timeout, ping); err != nil {
		_ = client.Close() //nolint:errcheck // connect error takes precedence
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("driver", "redis").
			With("addr", opts.Addr).
			Hint("check store.redis.addr and that the server is reachable").
			Wrap(err)
	}
	return &Store{client: client}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return credential.TransportError("ping", s.client.Ping(ctx).Err())
}

func forwardKey(identity string) string { return forwardPrefix + identity }
func inverseKey(secret string) string   { return inversePrefix + secret }
func noteKey(identity string) string    { return notesPrefix + identity }

// GetSecret implements credential.Store.
func (s *Store) GetSecret(ctx context.Context, identity string) (string, bool, error) {
	secret, err := s.client.Get(ctx, forwardKey(identity)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, credential.TransportError("get secret", err)
	}
	return secret, true, nil
}

// GetIdentitiesBySecret implements credential.Store.
func (s *Store) GetIdentitiesBySecret(ctx context.Context, secret string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	identities, err := s.client.ZRange(ctx, inverseKey(secret), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, credential.TransportError("get identities by secret", err)
	}
	return identities, nil
}

// SetSecret implements credential.Store.
func (s *Store) SetSecret(ctx context.Context, identity, secret string) error {
	err := s.client.Set(ctx, forwardKey(identity), secret, 0).Err()
	return credential.TransportError("set secret", err)
}

// SetInverseMembership implements credential.Store.
func (s *Store) SetInverseMembership(ctx context.Context, secret, identity string) error {
	err := s.client.ZAdd(ctx, inverseKey(secret), goredis.Z{Score: 0, Member: identity}).Err()
	return credential.TransportError("set inverse membership", err)
}

// ScanForward implements credential.InverseScanner on top of SCAN, so the
// cursor is Redis's own and pages may repeat keys. count is a hint.
func (s *Store) ScanForward(ctx context.Context, cursor string, count int) ([]credential.Entry, string, error) {
	var position uint64
	if cursor != "" {
		var err error
		position, err = strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", oops.Code("STORE_INVALID_CURSOR").With("cursor", cursor).Wrap(err)
		}
	}

	keys, nextPosition, err := s.client.Scan(ctx, position, forwardPrefix+"*", int64(count)).Result()
	if err != nil {
		return nil, "", credential.TransportError("scan forward index", err)
	}

	next := ""
	if nextPosition != 0 {
		next = strconv.FormatUint(nextPosition, 10)
	}
	if len(keys) == 0 {
		return nil, next, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, "", credential.TransportError("read forward entries", err)
	}

	entries := make([]credential.Entry, 0, len(keys))
	for i, key := range keys {
		secret, ok := values[i].(string)
		if !ok {
			// Deleted between SCAN and MGET.
			continue
		}
		entries = append(entries, credential.Entry{
			Identity: strings.TrimPrefix(key, forwardPrefix),
			Secret:   secret,
		})
	}
	return entries, next, nil
}

// IsInverseMember implements credential.InverseScanner.
func (s *Store) IsInverseMember(ctx context.Context, secret, identity string) (bool, error) {
	err := s.client.ZScore(ctx, inverseKey(secret), identity).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, credential.TransportError("probe inverse membership", err)
	}
	return true, nil
}

// GetNote implements notes.Store.
func (s *Store) GetNote(ctx context.Context, identity string) (string, bool, error) {
	body, err := s.client.Get(ctx, noteKey(identity)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, credential.TransportError("get note", err)
	}
	return body, true, nil
}

// SetNote implements notes.Store.
func (s *Store) SetNote(ctx context.Context, identity, text string) error {
	return credential.TransportError("set note", s.client.Set(ctx, noteKey(identity), text, 0).Err())
}
