// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package session holds the process-wide authentication state and persists
// it in a local Cache so a restart restores the previous session.
//
// A Manager starts in the loading state. Until the cached snapshot has been
// replayed, access decisions are deferred rather than denied. Mutations made
// while loading win over the replayed snapshot.
package session
