// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package session

import (
	"context"
	"sync"
)

// Cache keys. Values are stored JSON-encoded.
const (
	KeyAuthenticated = "isAuthenticated"
	KeyIdentity      = "username"
	KeySecret        = "password"
)

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Authenticated bool
	Identity      string
	Secret        string
}

// normalize drops identity and secret when the snapshot is not
// authenticated; they carry no meaning without it.
func (s Snapshot) normalize() Snapshot {
	if !s.Authenticated {
		return Snapshot{}
	}
	return s
}

// Cache persists a session across restarts. The cache is trusted: nothing
// re-checks a restored session against the credential store.
type Cache interface {
	// Load returns the stored snapshot. A missing or false authenticated
	// flag yields the zero Snapshot.
	Load(ctx context.Context) (Snapshot, error)
	// Save overwrites all three keys.
	Save(ctx context.Context, snap Snapshot) error
	// Clear removes all three keys.
	Clear(ctx context.Context) error
}

// MemoryCache is a Cache held in process memory.
type MemoryCache struct {
	mu   sync.Mutex
	snap *Snapshot
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Load implements Cache.
func (c *MemoryCache) Load(_ context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return Snapshot{}, nil
	}
	return c.snap.normalize(), nil
}

// Save implements Cache.
func (c *MemoryCache) Save(_ context.Context, snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snap
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	return nil
}
