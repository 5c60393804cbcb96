// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("peyp/credential")

// Resolver resolves a submitted pair. Engine implements it; Cursor.Commit
// accepts any Resolver.
type Resolver interface {
	Resolve(ctx context.Context, identity, secret string) (Outcome, error)
}

// Engine decides the outcome of submitted credentials and performs
// registration writes.
type Engine struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	limit   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records resolution and registration counts in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAlternativesLimit overrides AlternativesLimit.
func WithAlternativesLimit(n int) Option {
	return func(e *Engine) { e.limit = n }
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, oops.Code("CREDENTIAL_INVALID_CONFIG").Errorf("credential store is required")
	}

	e := &Engine{
		store:  store,
		logger: slog.Default(),
		limit:  AlternativesLimit,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		return nil, oops.Code("CREDENTIAL_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	if e.limit <= 0 {
		return nil, oops.Code("CREDENTIAL_INVALID_CONFIG").
			With("limit", e.limit).
			Errorf("alternatives limit must be positive")
	}
	return e, nil
}

// Resolve looks identity up and compares its stored secret with secret.
// A mismatch consults the inverse index before it is reported.
func (e *Engine) Resolve(ctx context.Context, identity, secret string) (out Outcome, err error) {
	ctx, span := tracer.Start(ctx, "credential.resolve")
	defer func() { endSpan(span, out, err) }()

	if err := Validate(identity, secret); err != nil {
		return Outcome{}, err
	}

	out = Outcome{
		AttemptID: ulid.Make(),
		Identity:  identity,
		Secret:    secret,
	}

	stored, found, err := e.store.GetSecret(ctx, identity)
	if err != nil {
		e.metrics.observeResolution("error")
		return Outcome{}, oops.Code("CREDENTIAL_RESOLVE_FAILED").
			With("operation", "get secret").
			With("identity", identity).
			With("attempt_id", out.AttemptID.String()).
			Wrap(err)
	}

	switch {
	case !found:
		out.Kind = KindIdentityNotFound
	case stored == secret:
		out.Kind = KindSuccess
	default:
		alternatives, err := e.store.GetIdentitiesBySecret(ctx, secret, e.limit)
		if err != nil {
			e.metrics.observeResolution("error")
			return Outcome{}, oops.Code("CREDENTIAL_RESOLVE_FAILED").
				With("operation", "get identities by secret").
				With("identity", identity).
				With("attempt_id", out.AttemptID.String()).
				Wrap(err)
		}
		if len(alternatives) > 0 {
			out.Kind = KindWrongSecretWithAlternatives
			out.Alternatives = alternatives
		} else {
			out.Kind = KindWrongSecretNoAlternatives
			out.Hint = stored
		}
	}

	e.metrics.observeResolution(out.Kind.String())
	e.logger.DebugContext(ctx, "credentials resolved",
		"attempt_id", out.AttemptID.String(),
		"identity", identity,
		"outcome", out.Kind.String(),
		"alternatives", len(out.Alternatives),
	)
	return out, nil
}

// Register writes identity -> secret to the forward index and then adds
// identity to secret's inverse set. Each write completes before the next
// begins. Callers only register after Resolve reported KindIdentityNotFound;
// Register itself does not re-check, so two concurrent registrations of the
// same identity both succeed and the later forward write wins.
func (e *Engine) Register(ctx context.Context, identity, secret string) (out Outcome, err error) {
	ctx, span := tracer.Start(ctx, "credential.register")
	defer func() { endSpan(span, out, err) }()

	if err := Validate(identity, secret); err != nil {
		return Outcome{}, err
	}

	attemptID := ulid.Make()

	if err := e.store.SetSecret(ctx, identity, secret); err != nil {
		e.metrics.observeRegistration("failed")
		return Outcome{}, oops.Code("CREDENTIAL_REGISTER_FAILED").
			With("operation", "set secret").
			With("identity", identity).
			With("attempt_id", attemptID.String()).
			Wrap(err)
	}

	if err := e.store.SetInverseMembership(ctx, secret, identity); err != nil {
		e.metrics.observeRegistration("partial")
		e.logger.WarnContext(ctx, "registration left identity without inverse membership",
			"attempt_id", attemptID.String(),
			"identity", identity,
			"error", err,
		)
		return Outcome{}, oops.Code("CREDENTIAL_PARTIAL_REGISTRATION").
			With("operation", "set inverse membership").
			With("identity", identity).
			With("attempt_id", attemptID.String()).
			Hint("run `peyp reconcile` to restore the inverse index").
			Wrap(fmt.Errorf("%w: %w", ErrPartialRegistration, err))
	}

	e.metrics.observeRegistration("ok")
	e.logger.InfoContext(ctx, "identity registered",
		"attempt_id", attemptID.String(),
		"identity", identity,
	)

	return Outcome{
		Kind:      KindSuccess,
		AttemptID: attemptID,
		Identity:  identity,
		Secret:    secret,
	}, nil
}

func endSpan(span trace.Span, out Outcome, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("credential.outcome", out.Kind.String()),
			attribute.String("credential.attempt_id", out.AttemptID.String()),
		)
	}
	span.End()
}
