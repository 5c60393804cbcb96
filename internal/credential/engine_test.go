// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/memory"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/mocks"
	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

func newEngine(t *testing.T, store credential.Store, opts ...credential.Option) *credential.Engine {
	t.Helper()
	engine, err := credential.NewEngine(store, opts...)
	require.NoError(t, err)
	return engine
}

func register(t *testing.T, engine *credential.Engine, identity, secret string) {
	t.Helper()
	out, err := engine.Register(context.Background(), identity, secret)
	require.NoError(t, err)
	require.Equal(t, credential.KindSuccess, out.Kind)
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		store       credential.Store
		opts        []credential.Option
		expectError string
	}{
		{name: "nil store", store: nil, expectError: "credential store is required"},
		{name: "nil logger", store: memory.New(), opts: []credential.Option{credential.WithLogger(nil)}, expectError: "logger cannot be nil"},
		{name: "zero limit", store: memory.New(), opts: []credential.Option{credential.WithAlternativesLimit(0)}, expectError: "alternatives limit must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := credential.NewEngine(tt.store, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, engine)
			assert.Contains(t, err.Error(), tt.expectError)
			errutil.AssertErrorCode(t, err, "CREDENTIAL_INVALID_CONFIG")
		})
	}
}

func TestEngine_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown identity is not found", func(t *testing.T) {
		engine := newEngine(t, memory.New())

		out, err := engine.Resolve(ctx, "nobody", "whatever")
		require.NoError(t, err)
		assert.Equal(t, credential.KindIdentityNotFound, out.Kind)
		assert.Equal(t, "nobody", out.Identity)
		assert.NotZero(t, out.AttemptID)
		assert.False(t, out.Succeeded())
	})

	t.Run("registered pair succeeds", func(t *testing.T) {
		engine := newEngine(t, memory.New())
		register(t, engine, "alice", "s3cret")

		out, err := engine.Resolve(ctx, "alice", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, credential.KindSuccess, out.Kind)
		assert.True(t, out.Succeeded())
		assert.Nil(t, out.Cursor())
	})

	t.Run("shared secret offers alternatives in key order", func(t *testing.T) {
		engine := newEngine(t, memory.New())
		register(t, engine, "bob", "hunter2")
		register(t, engine, "alice", "hunter2")
		register(t, engine, "carol", "carolpass")

		out, err := engine.Resolve(ctx, "carol", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, credential.KindWrongSecretWithAlternatives, out.Kind)
		assert.Equal(t, []string{"alice", "bob"}, out.Alternatives)
		assert.Empty(t, out.Hint)
		require.NotNil(t, out.Cursor())
	})

	t.Run("unshared wrong secret has no alternatives", func(t *testing.T) {
		engine := newEngine(t, memory.New())
		register(t, engine, "carol", "carolpass")

		out, err := engine.Resolve(ctx, "carol", "nobodyhasthis")
		require.NoError(t, err)
		assert.Equal(t, credential.KindWrongSecretNoAlternatives, out.Kind)
		assert.Empty(t, out.Alternatives)
		assert.Equal(t, "carolpass", out.Hint)
		assert.Nil(t, out.Cursor())
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		engine := newEngine(t, store)

		_, err := engine.Resolve(ctx, "a", "1234")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CREDENTIAL_INVALID")
		store.AssertNotCalled(t, "GetSecret", mock.Anything, mock.Anything)
	})

	t.Run("alternatives lookup uses the configured limit", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		engine := newEngine(t, store, credential.WithAlternativesLimit(3))

		store.On("GetSecret", ctx, "carol").Return("carolpass", true, nil)
		store.On("GetIdentitiesBySecret", ctx, "hunter2", 3).Return([]string{"alice"}, nil)

		out, err := engine.Resolve(ctx, "carol", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, out.Alternatives)
	})

	t.Run("default limit is 100", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		engine := newEngine(t, store)

		store.On("GetSecret", ctx, "carol").Return("carolpass", true, nil)
		store.On("GetIdentitiesBySecret", ctx, "hunter2", credential.AlternativesLimit).Return(nil, nil)

		out, err := engine.Resolve(ctx, "carol", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, credential.KindWrongSecretNoAlternatives, out.Kind)
	})

	t.Run("transport failure on forward read", func(t *testing.T) {
		store := memory.New()
		store.Fail(memory.OpGetSecret, errors.New("connection reset"))
		engine := newEngine(t, store)

		out, err := engine.Resolve(ctx, "alice", "s3cret")
		require.Error(t, err)
		assert.Zero(t, out.Kind)
		assert.True(t, credential.IsTransport(err))
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("transport failure on inverse read", func(t *testing.T) {
		store := memory.New()
		engine := newEngine(t, store)
		register(t, engine, "alice", "s3cret")
		store.Fail(memory.OpGetIdentitiesBySecret, errors.New("timeout"))

		_, err := engine.Resolve(ctx, "alice", "wrongpass")
		require.Error(t, err)
		assert.True(t, credential.IsTransport(err))
	})

	t.Run("repeated resolution is idempotent", func(t *testing.T) {
		engine := newEngine(t, memory.New())
		register(t, engine, "alice", "hunter2")
		register(t, engine, "bob", "hunter2")
		register(t, engine, "carol", "carolpass")

		pairs := [][2]string{
			{"alice", "hunter2"},
			{"carol", "hunter2"},
			{"carol", "unshared"},
			{"dave", "hunter2"},
		}
		for _, p := range pairs {
			first, err := engine.Resolve(ctx, p[0], p[1])
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				again, err := engine.Resolve(ctx, p[0], p[1])
				require.NoError(t, err)
				assert.Equal(t, first.Kind, again.Kind)
				assert.Equal(t, first.Alternatives, again.Alternatives)
				assert.Equal(t, first.Hint, again.Hint)
			}
		}
	})
}

func TestEngine_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("writes forward index before inverse index", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		engine := newEngine(t, store)

		var order []string
		store.On("SetSecret", ctx, "alice", "s3cret").
			Run(func(mock.Arguments) { order = append(order, "forward") }).
			Return(nil).Once()
		store.On("SetInverseMembership", ctx, "s3cret", "alice").
			Run(func(mock.Arguments) { order = append(order, "inverse") }).
			Return(nil).Once()

		out, err := engine.Register(ctx, "alice", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, credential.KindSuccess, out.Kind)
		assert.Equal(t, "alice", out.Identity)
		assert.Equal(t, []string{"forward", "inverse"}, order)
	})

	t.Run("forward failure skips inverse write", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		engine := newEngine(t, store)

		store.On("SetSecret", ctx, "alice", "s3cret").
			Return(credential.TransportError("set secret", errors.New("unreachable")))

		_, err := engine.Register(ctx, "alice", "s3cret")
		require.Error(t, err)
		assert.True(t, credential.IsTransport(err))
		assert.False(t, errors.Is(err, credential.ErrPartialRegistration))
		store.AssertNotCalled(t, "SetInverseMembership", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inverse failure reports partial registration", func(t *testing.T) {
		store := memory.New()
		store.Fail(memory.OpSetInverseMembership, errors.New("write refused"))
		var logs bytes.Buffer
		engine := newEngine(t, store, credential.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

		_, err := engine.Register(ctx, "alice", "s3cret")
		require.Error(t, err)
		assert.True(t, errors.Is(err, credential.ErrPartialRegistration))
		assert.True(t, credential.IsTransport(err))
		assert.Contains(t, logs.String(), "registration left identity without inverse membership")

		// The forward write landed, so the identity now exists.
		store.Fail(memory.OpSetInverseMembership, nil)
		out, err := engine.Resolve(ctx, "alice", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, credential.KindSuccess, out.Kind)
	})

	t.Run("invalid input is rejected before writing", func(t *testing.T) {
		store := mocks.NewMockStore(t)
		engine := newEngine(t, store)

		_, err := engine.Register(ctx, "alice", "abc")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CREDENTIAL_INVALID")
	})

	t.Run("registered pairs always resolve", func(t *testing.T) {
		engine := newEngine(t, memory.New())
		pairs := map[string]string{
			"al":     "12345",
			"bob":    "hunter2",
			"carol":  "hunter2",
			"émilie": "motdepasse",
		}
		for identity, secret := range pairs {
			register(t, engine, identity, secret)
		}
		for identity, secret := range pairs {
			out, err := engine.Resolve(ctx, identity, secret)
			require.NoError(t, err)
			assert.Equal(t, credential.KindSuccess, out.Kind, identity)
		}
	})

	t.Run("later registration of the same identity wins", func(t *testing.T) {
		store := memory.New()
		engine := newEngine(t, store)
		register(t, engine, "alice", "firstpass")
		register(t, engine, "alice", "secondpass")

		out, err := engine.Resolve(ctx, "alice", "secondpass")
		require.NoError(t, err)
		assert.Equal(t, credential.KindSuccess, out.Kind)
	})
}

func TestEngine_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := credential.NewMetrics(reg)
	engine := newEngine(t, memory.New(), credential.WithMetrics(metrics))

	register(t, engine, "alice", "hunter2")
	_, err := engine.Resolve(ctx, "alice", "hunter2")
	require.NoError(t, err)
	_, err = engine.Resolve(ctx, "nobody", "hunter2")
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Registrations.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("identity_not_found")), 0)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "identity_not_found", credential.KindIdentityNotFound.String())
	assert.Equal(t, "success", credential.KindSuccess.String())
	assert.Equal(t, "wrong_secret_with_alternatives", credential.KindWrongSecretWithAlternatives.String())
	assert.Equal(t, "wrong_secret_no_alternatives", credential.KindWrongSecretNoAlternatives.String())
	assert.Equal(t, "unknown", credential.Kind(0).String())
}
