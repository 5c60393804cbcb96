// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import (
	"context"

	"github.com/samber/oops"
)

// Cursor pages through the identities that share a submitted secret.
// The index always stays within [0, Len()-1] while the cursor is active.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	secret     string
	candidates []string
	index      int
}

// NewCursor returns a cursor positioned on the first candidate.
func NewCursor(secret string, candidates []string) *Cursor {
	return &Cursor{
		secret:     secret,
		candidates: append([]string(nil), candidates...),
	}
}

// Active reports whether the cursor holds candidates.
func (c *Cursor) Active() bool {
	return c != nil && len(c.candidates) > 0
}

// Len returns the number of candidates.
func (c *Cursor) Len() int {
	if c == nil {
		return 0
	}
	return len(c.candidates)
}

// Index returns the zero-based position.
func (c *Cursor) Index() int {
	if c == nil {
		return 0
	}
	return c.index
}

// Secret returns the submitted secret the candidates were found for.
func (c *Cursor) Secret() string {
	if c == nil {
		return ""
	}
	return c.secret
}

// Candidates returns a copy of the candidate list.
func (c *Cursor) Candidates() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.candidates...)
}

// HasNext reports whether Next would move.
func (c *Cursor) HasNext() bool {
	return c.Active() && c.index < len(c.candidates)-1
}

// HasPrevious reports whether Previous would move.
func (c *Cursor) HasPrevious() bool {
	return c.Active() && c.index > 0
}

// Next advances one position, saturating at the last candidate.
func (c *Cursor) Next() {
	if c.HasNext() {
		c.index++
	}
}

// Previous moves back one position, saturating at the first candidate.
func (c *Cursor) Previous() {
	if c.HasPrevious() {
		c.index--
	}
}

// Current returns the candidate at the current position.
func (c *Cursor) Current() (string, error) {
	if !c.Active() {
		return "", oops.Code("CURSOR_INACTIVE").Wrap(ErrCursorInactive)
	}
	return c.candidates[c.index], nil
}

// Invalidate discards the candidates. The cursor stays inactive afterwards.
func (c *Cursor) Invalidate() {
	if c == nil {
		return
	}
	c.candidates = nil
	c.index = 0
	c.secret = ""
}

// Commit resolves the current candidate with the original secret. The
// candidate was found in that secret's inverse set, so on an unchanged store
// the outcome is KindSuccess.
func (c *Cursor) Commit(ctx context.Context, r Resolver) (Outcome, error) {
	candidate, err := c.Current()
	if err != nil {
		return Outcome{}, err
	}
	out, err := r.Resolve(ctx, candidate, c.secret)
	if err != nil {
		return Outcome{}, oops.Code("CURSOR_COMMIT_FAILED").
			With("candidate", candidate).
			Wrap(err)
	}
	return out, nil
}
