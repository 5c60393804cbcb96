// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package notes stores one free-text note per identity, readable and
// writable only by the identity of the current session.
package notes

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/diragb/pleaseenteryourpassword/internal/session"
)

// Note length bounds, in characters.
const (
	MinLength = 1
	MaxLength = 1000
)

// Store persists notes keyed by identity.
type Store interface {
	GetNote(ctx context.Context, identity string) (text string, found bool, err error)
	SetNote(ctx context.Context, identity, text string) error
}

// Service reads and writes the signed-in identity's note.
type Service struct {
	store    Store
	sessions *session.Manager
	logger   *slog.Logger
}

// NewService returns a Service.
func NewService(store Store, sessions *session.Manager, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, oops.Code("NOTES_INVALID_CONFIG").Errorf("note store is required")
	}
	if sessions == nil {
		return nil, oops.Code("NOTES_INVALID_CONFIG").Errorf("session manager is required")
	}
	if logger == nil {
		return nil, oops.Code("NOTES_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	return &Service{store: store, sessions: sessions, logger: logger}, nil
}

// owner returns the identity whose note may be accessed.
func (s *Service) owner() (string, error) {
	switch s.sessions.Decide() {
	case session.DecisionDeferred:
		return "", oops.Code("NOTES_DEFERRED").Errorf("session is still loading")
	case session.DecisionDenied:
		return "", oops.Code("NOTES_UNAUTHENTICATED").
			Hint("log in first").
			Errorf("no active session")
	}
	identity := s.sessions.State().Identity
	if identity == "" {
		return "", oops.Code("NOTES_UNAUTHENTICATED").Errorf("session has no identity")
	}
	return identity, nil
}

// Get returns the note. found is false when none was ever saved.
func (s *Service) Get(ctx context.Context) (text string, found bool, err error) {
	identity, err := s.owner()
	if err != nil {
		return "", false, err
	}
	text, found, err = s.store.GetNote(ctx, identity)
	if err != nil {
		return "", false, oops.Code("NOTES_READ_FAILED").With("identity", identity).Wrap(err)
	}
	return text, found, nil
}

// Validate checks the note length.
func Validate(text string) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n < MinLength:
		return oops.Code("NOTES_INVALID").Errorf("C'mon, add something..")
	case n > MaxLength:
		return oops.Code("NOTES_INVALID").With("length", n).Errorf("Okay, that's enough words")
	}
	return nil
}

// Set stores text and returns the value read back from the store.
func (s *Service) Set(ctx context.Context, text string) (string, error) {
	identity, err := s.owner()
	if err != nil {
		return "", err
	}
	if err := Validate(text); err != nil {
		return "", err
	}
	if err := s.store.SetNote(ctx, identity, text); err != nil {
		return "", oops.Code("NOTES_WRITE_FAILED").With("identity", identity).Wrap(err)
	}
	stored, _, err := s.store.GetNote(ctx, identity)
	if err != nil {
		return "", oops.Code("NOTES_READ_FAILED").With("identity", identity).Wrap(err)
	}
	s.logger.DebugContext(ctx, "note saved", "identity", identity, "length", utf8.RuneCountInString(stored))
	return stored, nil
}
