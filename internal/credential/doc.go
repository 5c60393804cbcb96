// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package credential resolves a submitted (identity, secret) pair against the
// credential store.
//
// # Indexes
//
// The store keeps two indexes that are written independently:
//   - the forward index maps an identity to its secret
//   - the inverse index maps a secret to the set of identities holding it
//
// Secrets are stored and compared in plaintext. Because a secret may be held
// by several identities, a failed login can be turned into a lookup: the
// inverse index tells the caller which identities the typed secret belongs to.
//
// # Resolution
//
// Engine.Resolve returns one of four Outcome kinds. None of them is an error;
// errors are reserved for validation failures and store transport failures.
// A KindWrongSecretWithAlternatives outcome opens a Cursor over the candidate
// identities, and Cursor.Commit resolves the chosen candidate with the same
// secret.
//
// # Registration
//
// Engine.Register writes the forward index and then the inverse index. The
// store offers no multi-key transaction, so a failure between the two writes
// leaves an identity without inverse membership. Register reports that case
// with CREDENTIAL_PARTIAL_REGISTRATION and Reconciler can repair it later.
package credential
