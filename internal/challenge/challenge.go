// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package challenge gates credential submissions behind a bot-verification
// step. A successful Verify yields a Token; callers that need proof of
// verification accept a Token rather than trusting a flag.
package challenge

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token proves a challenge was passed. The zero Token is invalid and only
// this package can mint another.
type Token struct {
	id ulid.ULID
}

// Valid reports whether t was minted by a Verifier.
func (t Token) Valid() bool {
	return t.id != (ulid.ULID{})
}

// ID identifies the verification for logging.
func (t Token) ID() string {
	if !t.Valid() {
		return ""
	}
	return t.id.String()
}

func mint() Token {
	return Token{id: ulid.Make()}
}

// Require fails with CHALLENGE_REQUIRED unless t is valid.
func Require(t Token) error {
	if !t.Valid() {
		return oops.Code("CHALLENGE_REQUIRED").Errorf("bot verification has not been passed")
	}
	return nil
}

// Verifier runs a verification challenge.
type Verifier interface {
	Verify(ctx context.Context) (Token, error)
}

// Static passes every challenge. It suits trusted local front ends such as
// the CLI.
type Static struct{}

// Verify implements Verifier.
func (Static) Verify(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, oops.Code("CHALLENGE_FAILED").Wrap(err)
	}
	return mint(), nil
}

// Func adapts a check function to Verifier. A nil error passes.
type Func func(ctx context.Context) error

// Verify implements Verifier.
func (f Func) Verify(ctx context.Context) (Token, error) {
	if err := f(ctx); err != nil {
		return Token{}, oops.Code("CHALLENGE_FAILED").
			Hint("bot verification failed, try again").
			Wrap(err)
	}
	return mint(), nil
}
