// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package login drives one credential entry surface: it holds the typed
// identity and secret, decides between logging in and registering, keeps the
// disambiguation cursor, and hands successful outcomes to the session.
package login

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/diragb/pleaseenteryourpassword/internal/challenge"
	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/session"
	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

var tracer = otel.Tracer("peyp/login")

// Mode selects what Submit does with the entered pair.
type Mode int

// Submission modes.
const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "register"
	}
	return "login"
}

// Authenticator resolves and registers credential pairs. credential.Engine
// implements it.
type Authenticator interface {
	credential.Resolver
	Register(ctx context.Context, identity, secret string) (credential.Outcome, error)
}

// gated passes calls to auth only while it holds a valid challenge token.
type gated struct {
	auth  Authenticator
	token challenge.Token
}

func (g gated) Resolve(ctx context.Context, identity, secret string) (credential.Outcome, error) {
	if err := challenge.Require(g.token); err != nil {
		return credential.Outcome{}, err
	}
	return g.auth.Resolve(ctx, identity, secret)
}

func (g gated) Register(ctx context.Context, identity, secret string) (credential.Outcome, error) {
	if err := challenge.Require(g.token); err != nil {
		return credential.Outcome{}, err
	}
	return g.auth.Register(ctx, identity, secret)
}

// Result is the outcome of a submission together with the mode the flow is
// in afterwards.
type Result struct {
	Outcome credential.Outcome
	Mode    Mode
}

// Flow is safe for concurrent use. At most one submission runs at a time.
type Flow struct {
	auth     Authenticator
	sessions *session.Manager
	verifier challenge.Verifier
	logger   *slog.Logger

	mu         sync.Mutex
	identity   string
	secret     string
	mode       Mode
	submitting bool
	cursor     *credential.Cursor
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// NewFlow returns a Flow in ModeLogin with empty inputs.
func NewFlow(auth Authenticator, sessions *session.Manager, verifier challenge.Verifier, opts ...Option) (*Flow, error) {
	if auth == nil {
		return nil, oops.Code("LOGIN_INVALID_CONFIG").Errorf("authenticator is required")
	}
	if sessions == nil {
		return nil, oops.Code("LOGIN_INVALID_CONFIG").Errorf("session manager is required")
	}
	if verifier == nil {
		return nil, oops.Code("LOGIN_INVALID_CONFIG").Errorf("challenge verifier is required")
	}
	f := &Flow{
		auth:     auth,
		sessions: sessions,
		verifier: verifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		return nil, oops.Code("LOGIN_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	return f, nil
}

func errBusy() error {
	return oops.Code("LOGIN_BUSY").Errorf("a submission is already in progress")
}

// SetIdentity replaces the identity input. Any edit returns the flow to
// ModeLogin.
func (f *Flow) SetIdentity(identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return errBusy()
	}
	f.identity = identity
	f.mode = ModeLogin
	return nil
}

// SetSecret replaces the secret input and discards the cursor, whose
// candidates belong to the previous secret.
func (f *Flow) SetSecret(secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return errBusy()
	}
	if secret != f.secret {
		f.cursor.Invalidate()
		f.cursor = nil
	}
	f.secret = secret
	return nil
}

// SetMode selects the submission mode. ModeRegister only registers an
// identity that does not exist yet; see Submit.
func (f *Flow) SetMode(mode Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return errBusy()
	}
	f.mode = mode
	return nil
}

// Mode returns the current submission mode.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Identity returns the identity input.
func (f *Flow) Identity() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity
}

// Submitting reports whether a submission is in flight.
func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Submit validates the inputs, passes the challenge and resolves the pair.
// In ModeRegister the pair is registered only when the resolution reports
// that the identity does not exist; any other outcome is returned as is and
// the flow drops back to ModeLogin.
func (f *Flow) Submit(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "login.submit")
	defer span.End()

	identity, secret, mode, err := f.begin()
	if err != nil {
		return Result{}, err
	}
	defer f.end()
	span.SetAttributes(attribute.String("login.mode", mode.String()))

	if err := credential.Validate(identity, secret); err != nil {
		return Result{Mode: mode}, err
	}
	token, err := f.verifier.Verify(ctx)
	if err != nil {
		return Result{Mode: mode}, err
	}
	auth := gated{auth: f.auth, token: token}

	out, err := auth.Resolve(ctx, identity, secret)
	if err == nil && mode == ModeRegister && out.Kind == credential.KindIdentityNotFound {
		out, err = auth.Register(ctx, identity, secret)
	}
	if err != nil {
		if errutil.Code(err) == "CHALLENGE_REQUIRED" {
			return Result{Mode: mode}, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Mode: mode}, oops.Code("LOGIN_FAILED").With("mode", mode.String()).Wrap(err)
	}
	return f.apply(ctx, out)
}

// Choose adopts the cursor's current candidate as the identity input and
// resolves it with the secret the candidates were found for.
func (f *Flow) Choose(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "login.choose")
	defer span.End()

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Result{}, errBusy()
	}
	candidate, err := f.cursor.Current()
	if err != nil {
		mode := f.mode
		f.mu.Unlock()
		return Result{Mode: mode}, err
	}
	f.identity = candidate
	f.mode = ModeLogin
	commit := credential.NewCursor(f.cursor.Secret(), []string{candidate})
	f.mu.Unlock()

	if _, _, _, err := f.begin(); err != nil {
		return Result{}, err
	}
	defer f.end()

	token, err := f.verifier.Verify(ctx)
	if err != nil {
		return Result{Mode: ModeLogin}, err
	}
	out, err := commit.Commit(ctx, gated{auth: f.auth, token: token})
	if err != nil {
		if errutil.Code(err) == "CHALLENGE_REQUIRED" {
			return Result{Mode: ModeLogin}, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{Mode: ModeLogin}, oops.Code("LOGIN_FAILED").With("mode", "choose").Wrap(err)
	}
	return f.apply(ctx, out)
}

func (f *Flow) begin() (identity, secret string, mode Mode, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return "", "", f.mode, errBusy()
	}
	if f.sessions.State().Authenticated {
		return "", "", f.mode, oops.Code("LOGIN_ALREADY_AUTHENTICATED").
			Hint("log out before signing in again").
			Errorf("a session is already active")
	}
	f.submitting = true
	return f.identity, f.secret, f.mode, nil
}

func (f *Flow) end() {
	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()
}

// apply updates the flow for out and persists a session on success.
func (f *Flow) apply(ctx context.Context, out credential.Outcome) (Result, error) {
	f.mu.Lock()
	f.mode = ModeLogin
	switch out.Kind {
	case credential.KindIdentityNotFound:
		f.mode = ModeRegister
	case credential.KindWrongSecretWithAlternatives:
		f.cursor = out.Cursor()
	case credential.KindSuccess, credential.KindWrongSecretNoAlternatives:
		f.cursor.Invalidate()
		f.cursor = nil
	}
	result := Result{Outcome: out, Mode: f.mode}
	f.mu.Unlock()

	f.logger.DebugContext(ctx, "submission finished",
		"attempt_id", out.AttemptID.String(),
		"outcome", out.Kind.String(),
		"mode", result.Mode.String(),
	)

	if out.Succeeded() {
		if err := f.sessions.Login(ctx, out.Identity, out.Secret); err != nil {
			return result, oops.Code("LOGIN_SESSION_NOT_PERSISTED").
				Hint("you are logged in for this run only").
				Wrap(err)
		}
	}
	return result, nil
}

// Next moves the cursor forward.
func (f *Flow) Next() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor.Next()
}

// Previous moves the cursor back.
func (f *Flow) Previous() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor.Previous()
}

// Candidate describes the cursor position.
type Candidate struct {
	Identity string
	Index    int
	Total    int
	HasNext  bool
	HasPrev  bool
}

// Candidate returns the cursor's current candidate. It fails with
// CURSOR_INACTIVE when no alternatives are on offer.
func (f *Flow) Candidate() (Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, err := f.cursor.Current()
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Identity: identity,
		Index:    f.cursor.Index(),
		Total:    f.cursor.Len(),
		HasNext:  f.cursor.HasNext(),
		HasPrev:  f.cursor.HasPrevious(),
	}, nil
}
