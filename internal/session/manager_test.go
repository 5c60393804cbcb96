// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/diragb/pleaseenteryourpassword/internal/session"
	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

// gatedCache blocks Load until release is closed.
type gatedCache struct {
	session.Cache
	release chan struct{}
	loadErr error
}

func (c *gatedCache) Load(ctx context.Context) (session.Snapshot, error) {
	<-c.release
	if c.loadErr != nil {
		return session.Snapshot{}, c.loadErr
	}
	return c.Cache.Load(ctx)
}

// failingCache fails every write.
type failingCache struct {
	session.Cache
}

func (failingCache) Save(context.Context, session.Snapshot) error { return errors.New("disk full") }
func (failingCache) Clear(context.Context) error                  { return errors.New("disk full") }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T, cache session.Cache) *session.Manager {
	t.Helper()
	m, err := session.NewManager(cache, session.WithLogger(quietLogger()))
	require.NoError(t, err)
	return m
}

func waitReady(t *testing.T, m *session.Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
}

func TestNewManager_Validation(t *testing.T) {
	_, err := session.NewManager(nil)
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_CONFIG")

	_, err = session.NewManager(session.NewMemoryCache(), session.WithLogger(nil))
	errutil.AssertErrorCode(t, err, "SESSION_INVALID_CONFIG")
}

func TestManager_LoadingDefersAccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	cache := &gatedCache{Cache: session.NewMemoryCache(), release: make(chan struct{})}
	m := newManager(t, cache)
	m.Start(context.Background())

	assert.True(t, m.State().Loading)
	assert.Equal(t, session.DecisionDeferred, m.Decide())

	close(cache.release)
	waitReady(t, m)

	assert.False(t, m.State().Loading)
	assert.Equal(t, session.DecisionDenied, m.Decide())
}

func TestManager_RestoresCachedSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cache := session.NewMemoryCache()
	require.NoError(t, cache.Save(ctx, session.Snapshot{Authenticated: true, Identity: "alice", Secret: "hunter2"}))

	m := newManager(t, cache)
	m.Start(ctx)
	m.Start(ctx)
	waitReady(t, m)

	state := m.State()
	assert.True(t, state.Authenticated)
	assert.Equal(t, "alice", state.Identity)
	assert.Equal(t, "hunter2", state.Secret)
	assert.Equal(t, session.DecisionGranted, m.Decide())
}

func TestManager_UnreadableCacheStartsUnauthenticated(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	close(release)
	cache := &gatedCache{Cache: session.NewMemoryCache(), release: release, loadErr: errors.New("corrupt")}
	m := newManager(t, cache)
	m.Start(context.Background())
	waitReady(t, m)

	assert.Equal(t, session.DecisionDenied, m.Decide())
}

func TestManager_MutationDuringLoadWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	inner := session.NewMemoryCache()
	require.NoError(t, inner.Save(ctx, session.Snapshot{Authenticated: true, Identity: "alice", Secret: "hunter2"}))
	cache := &gatedCache{Cache: inner, release: make(chan struct{})}

	m := newManager(t, cache)
	m.Start(ctx)
	require.NoError(t, m.Logout(ctx))
	close(cache.release)
	waitReady(t, m)

	state := m.State()
	assert.False(t, state.Authenticated)
	assert.Empty(t, state.Identity)
}

func TestManager_LoginWritesThrough(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cache := session.NewMemoryCache()
	m := newManager(t, cache)
	m.Start(ctx)
	waitReady(t, m)

	require.NoError(t, m.Login(ctx, "bob", "hunter2"))
	assert.Equal(t, session.DecisionGranted, m.Decide())

	snap, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Snapshot{Authenticated: true, Identity: "bob", Secret: "hunter2"}, snap)

	// A fresh manager over the same cache restores the session.
	restored := newManager(t, cache)
	restored.Start(ctx)
	waitReady(t, restored)
	assert.Equal(t, "bob", restored.State().Identity)
}

func TestManager_LogoutClearsCacheAndPublishes(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	cache := session.NewMemoryCache()
	m := newManager(t, cache)
	m.Start(ctx)
	waitReady(t, m)

	events, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.Login(ctx, "alice", "hunter2"))
	require.NoError(t, m.Logout(ctx))

	assert.Equal(t, session.EventLoggedIn, <-events)
	assert.Equal(t, session.EventLoggedOut, <-events)

	snap, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Authenticated)
	assert.Equal(t, session.DecisionDenied, m.Decide())
}

func TestManager_Setters(t *testing.T) {
	ctx := context.Background()
	cache := session.NewMemoryCache()
	m := newManager(t, cache)
	m.Start(ctx)
	waitReady(t, m)

	require.NoError(t, m.SetIdentity(ctx, "alice"))
	require.NoError(t, m.SetSecret(ctx, "hunter2"))
	require.NoError(t, m.SetAuthenticated(ctx, true))

	snap, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Snapshot{Authenticated: true, Identity: "alice", Secret: "hunter2"}, snap)
}

func TestManager_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, failingCache{Cache: session.NewMemoryCache()})
	m.Start(ctx)
	waitReady(t, m)

	err := m.Login(ctx, "alice", "hunter2")
	errutil.AssertErrorCode(t, err, "SESSION_PERSIST_FAILED")
	assert.True(t, m.State().Authenticated)

	err = m.Logout(ctx)
	errutil.AssertErrorCode(t, err, "SESSION_PERSIST_FAILED")
	assert.False(t, m.State().Authenticated)
}

func TestManager_UnsubscribeClosesChannel(t *testing.T) {
	m := newManager(t, session.NewMemoryCache())
	events, cancel := m.Subscribe()
	cancel()
	cancel()

	_, ok := <-events
	assert.False(t, ok)
}

func TestManager_WaitCancelled(t *testing.T) {
	m := newManager(t, session.NewMemoryCache())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Wait(ctx)
	errutil.AssertErrorCode(t, err, "SESSION_WAIT_CANCELLED")
}

func TestDecisionAndEventStrings(t *testing.T) {
	assert.Equal(t, "deferred", session.DecisionDeferred.String())
	assert.Equal(t, "granted", session.DecisionGranted.String())
	assert.Equal(t, "denied", session.DecisionDenied.String())
	assert.Equal(t, "logged_in", session.EventLoggedIn.String())
	assert.Equal(t, "logged_out", session.EventLoggedOut.String())
}
