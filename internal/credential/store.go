// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import "context"

// AlternativesLimit bounds the inverse-index lookup made on a wrong secret.
// A trivially common secret could otherwise fan out to every identity.
const AlternativesLimit = 100

// Store is typed access to the forward and inverse indexes. It holds no
// business logic. Every error it returns is a transport failure.
type Store interface {
	// GetSecret returns the secret stored for identity. found is false when
	// the forward index has no entry for it.
	GetSecret(ctx context.Context, identity string) (secret string, found bool, err error)

	// GetIdentitiesBySecret returns at most limit identities holding secret,
	// ordered by identity key.
	GetIdentitiesBySecret(ctx context.Context, secret string, limit int) ([]string, error)

	// SetSecret overwrites the forward index entry for identity.
	SetSecret(ctx context.Context, identity, secret string) error

	// SetInverseMembership marks identity as a member of secret's inverse set.
	SetInverseMembership(ctx context.Context, secret, identity string) error
}

// Entry is one forward index record.
type Entry struct {
	Identity string
	Secret   string
}

// InverseScanner is implemented by stores that can enumerate the forward
// index and probe single inverse memberships. Only the Reconciler needs it.
type InverseScanner interface {
	// ScanForward returns up to count forward entries starting at cursor.
	// An empty cursor starts from the beginning; an empty next cursor means
	// the scan is complete.
	ScanForward(ctx context.Context, cursor string, count int) (entries []Entry, next string, err error)

	// IsInverseMember reports whether identity is in secret's inverse set.
	IsInverseMember(ctx context.Context, secret, identity string) (bool, error)
}
