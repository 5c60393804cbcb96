// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

// State is a point-in-time copy of the session.
type State struct {
	Loading       bool
	Authenticated bool
	Identity      string
	Secret        string
}

// Decision is the access decision for protected content.
type Decision int

// Access decisions.
const (
	DecisionDeferred Decision = iota
	DecisionGranted
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionDeferred:
		return "deferred"
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Event is a session transition published to subscribers.
type Event int

// Session events. EventLoggedOut tells front ends to return to the
// credential entry point.
const (
	EventLoggedIn Event = iota + 1
	EventLoggedOut
)

func (e Event) String() string {
	switch e {
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

const subscriberBuffer = 16

// Manager is the session context. Construct with NewManager and call Start
// once.
type Manager struct {
	cache  Cache
	logger *slog.Logger

	mu    sync.Mutex
	state State
	// dirty is set by any mutation; the replayed snapshot is then ignored.
	dirty bool
	subs  []chan Event

	startOnce sync.Once
	ready     chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. nil is rejected by NewManager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager returns a Manager in the loading state.
func NewManager(cache Cache, opts ...ManagerOption) (*Manager, error) {
	if cache == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("session cache is required")
	}
	m := &Manager{
		cache:  cache,
		logger: slog.Default(),
		state:  State{Loading: true},
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	return m, nil
}

// Start replays the cache in the background. Later calls do nothing.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go m.load(ctx)
	})
}

func (m *Manager) load(ctx context.Context) {
	snap, err := m.cache.Load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(m.ready)

	m.state.Loading = false
	if err != nil {
		errutil.LogErrorContext(ctx, m.logger, "session cache unreadable, starting unauthenticated", err)
		return
	}
	if m.dirty {
		m.logger.DebugContext(ctx, "session changed while loading, cached snapshot ignored")
		return
	}
	snap = snap.normalize()
	m.state.Authenticated = snap.Authenticated
	m.state.Identity = snap.Identity
	m.state.Secret = snap.Secret
	if snap.Authenticated {
		m.logger.InfoContext(ctx, "session restored", "identity", snap.Identity)
	}
}

// Ready is closed once the cache has been replayed.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Wait blocks until loading completes or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return oops.Code("SESSION_WAIT_CANCELLED").Wrap(ctx.Err())
	}
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Decide returns the access decision for protected content.
func (m *Manager) Decide() Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.state.Loading:
		return DecisionDeferred
	case m.state.Authenticated:
		return DecisionGranted
	default:
		return DecisionDenied
	}
}

// SetAuthenticated updates the flag and writes the session through to the
// cache. The in-memory change stands even if the cache write fails.
func (m *Manager) SetAuthenticated(ctx context.Context, authenticated bool) error {
	return m.mutate(ctx, func(s *State) { s.Authenticated = authenticated })
}

// SetIdentity updates the identity and writes through to the cache.
func (m *Manager) SetIdentity(ctx context.Context, identity string) error {
	return m.mutate(ctx, func(s *State) { s.Identity = identity })
}

// SetSecret updates the secret and writes through to the cache.
func (m *Manager) SetSecret(ctx context.Context, secret string) error {
	return m.mutate(ctx, func(s *State) { s.Secret = secret })
}

func (m *Manager) mutate(ctx context.Context, fn func(*State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
	m.dirty = true
	return m.persistLocked(ctx)
}

func (m *Manager) persistLocked(ctx context.Context) error {
	err := m.cache.Save(ctx, Snapshot{
		Authenticated: m.state.Authenticated,
		Identity:      m.state.Identity,
		Secret:        m.state.Secret,
	})
	if err != nil {
		return oops.Code("SESSION_PERSIST_FAILED").Wrap(err)
	}
	return nil
}

// Login marks identity as authenticated in memory and in the cache as one
// step and publishes EventLoggedIn.
func (m *Manager) Login(ctx context.Context, identity, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Authenticated = true
	m.state.Identity = identity
	m.state.Secret = secret
	m.dirty = true
	err := m.persistLocked(ctx)
	m.publishLocked(EventLoggedIn)
	m.logger.InfoContext(ctx, "logged in", "identity", identity)
	return err
}

// Logout clears the session in memory and in the cache and publishes
// EventLoggedOut.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity := m.state.Identity
	m.state.Authenticated = false
	m.state.Identity = ""
	m.state.Secret = ""
	m.dirty = true

	var err error
	if clearErr := m.cache.Clear(ctx); clearErr != nil {
		err = oops.Code("SESSION_PERSIST_FAILED").With("operation", "clear").Wrap(clearErr)
	}
	m.publishLocked(EventLoggedOut)
	m.logger.InfoContext(ctx, "logged out", "identity", identity)
	return err
}

// Subscribe returns a channel of session events and a function that
// unsubscribes and closes it. A subscriber that falls behind misses events.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	m.subs = append(m.subs, ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.subs {
				if sub == ch {
					m.subs = append(m.subs[:i], m.subs[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
	return ch, cancel
}

func (m *Manager) publishLocked(event Event) {
	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
			m.logger.Warn("session event dropped: subscriber buffer full", "event", event.String())
		}
	}
}
