// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package memory provides an in-process credential store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
)

// Op names a store operation for fault injection.
type Op string

// Store operations.
const (
	OpGetSecret             Op = "get_secret"
	OpGetIdentitiesBySecret Op = "get_identities_by_secret"
	OpSetSecret             Op = "set_secret"
	OpSetInverseMembership  Op = "set_inverse_membership"
	OpScanForward           Op = "scan_forward"
	OpIsInverseMember       Op = "is_inverse_member"
	OpGetNote               Op = "get_note"
	OpSetNote               Op = "set_note"
)

// Store keeps both indexes and the notes in maps. It implements
// credential.Store, credential.InverseScanner and notes.Store.
type Store struct {
	mu      sync.RWMutex
	forward map[string]string
	inverse map[string]map[string]struct{}
	notes   map[string]string
	faults  map[Op]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		forward: make(map[string]string),
		inverse: make(map[string]map[string]struct{}),
		notes:   make(map[string]string),
		faults:  make(map[Op]error),
	}
}

// Fail makes every later call of op return err as a transport error.
// A nil err clears the fault.
func (s *Store) Fail(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op Op) error {
	if err, ok := s.faults[op]; ok {
		return credential.TransportError(string(op), err)
	}
	return nil
}

// GetSecret implements credential.Store.
func (s *Store) GetSecret(_ context.Context, identity string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(OpGetSecret); err != nil {
		return "", false, err
	}
	secret, ok := s.forward[identity]
	return secret, ok, nil
}

// GetIdentitiesBySecret implements credential.Store.
func (s *Store) GetIdentitiesBySecret(_ context.Context, secret string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(OpGetIdentitiesBySecret); err != nil {
		return nil, err
	}

	members := s.inverse[secret]
	identities := make([]string, 0, len(members))
	for identity := range members {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	if limit >= 0 && len(identities) > limit {
		identities = identities[:limit]
	}
	return identities, nil
}

// SetSecret implements credential.Store.
func (s *Store) SetSecret(_ context.Context, identity, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetSecret); err != nil {
		return err
	}
	s.forward[identity] = secret
	return nil
}

// SetInverseMembership implements credential.Store.
func (s *Store) SetInverseMembership(_ context.Context, secret, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetInverseMembership); err != nil {
		return err
	}
	members, ok := s.inverse[secret]
	if !ok {
		members = make(map[string]struct{})
		s.inverse[secret] = members
	}
	members[identity] = struct{}{}
	return nil
}

// ScanForward implements credential.InverseScanner. The cursor is the last
// identity returned by the previous page.
func (s *Store) ScanForward(_ context.Context, cursor string, count int) ([]credential.Entry, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(OpScanForward); err != nil {
		return nil, "", err
	}

	identities := make([]string, 0, len(s.forward))
	for identity := range s.forward {
		if cursor == "" || identity > cursor {
			identities = append(identities, identity)
		}
	}
	sort.Strings(identities)

	next := ""
	if count > 0 && len(identities) > count {
		identities = identities[:count]
		next = identities[count-1]
	}

	entries := make([]credential.Entry, 0, len(identities))
	for _, identity := range identities {
		entries = append(entries, credential.Entry{Identity: identity, Secret: s.forward[identity]})
	}
	return entries, next, nil
}

// IsInverseMember implements credential.InverseScanner.
func (s *Store) IsInverseMember(_ context.Context, secret, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(OpIsInverseMember); err != nil {
		return false, err
	}
	_, ok := s.inverse[secret][identity]
	return ok, nil
}

// GetNote implements notes.Store.
func (s *Store) GetNote(_ context.Context, identity string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(OpGetNote); err != nil {
		return "", false, err
	}
	note, ok := s.notes[identity]
	return note, ok, nil
}

// SetNote implements notes.Store.
func (s *Store) SetNote(_ context.Context, identity, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetNote); err != nil {
		return err
	}
	s.notes[identity] = text
	return nil
}

// DropInverseMembership removes identity from secret's inverse set. It exists
// to reproduce partially written registrations.
func (s *Store) DropInverseMembership(secret, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inverse[secret], identity)
	if len(s.inverse[secret]) == 0 {
		delete(s.inverse, secret)
	}
}
