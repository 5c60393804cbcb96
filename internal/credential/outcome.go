// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import "github.com/oklog/ulid/v2"

// Kind is the closed set of resolution results.
type Kind int

// Resolution results. The zero Kind is invalid.
const (
	KindIdentityNotFound Kind = iota + 1
	KindSuccess
	KindWrongSecretWithAlternatives
	KindWrongSecretNoAlternatives
)

func (k Kind) String() string {
	switch k {
	case KindIdentityNotFound:
		return "identity_not_found"
	case KindSuccess:
		return "success"
	case KindWrongSecretWithAlternatives:
		return "wrong_secret_with_alternatives"
	case KindWrongSecretNoAlternatives:
		return "wrong_secret_no_alternatives"
	default:
		return "unknown"
	}
}

// Outcome is the result of one resolution or registration attempt.
type Outcome struct {
	Kind      Kind
	AttemptID ulid.ULID

	// Identity and Secret are the submitted pair.
	Identity string
	Secret   string

	// Alternatives lists the identities holding Secret, ordered by key.
	// Only set for KindWrongSecretWithAlternatives.
	Alternatives []string

	// Hint is the secret actually stored for Identity.
	// Only set for KindWrongSecretNoAlternatives.
	Hint string
}

// Succeeded reports whether the caller should persist a session.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindSuccess
}

// Cursor opens a disambiguation cursor over the alternatives. It returns nil
// for every other kind.
func (o Outcome) Cursor() *Cursor {
	if o.Kind != KindWrongSecretWithAlternatives || len(o.Alternatives) == 0 {
		return nil
	}
	return NewCursor(o.Secret, o.Alternatives)
}
