// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

// Package mocks holds testify mocks for credential interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of credential.Store.
type MockStore struct {
	mock.Mock
}

// NewMockStore creates a MockStore whose expectations are asserted on cleanup.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// GetSecret provides a mock function.
func (m *MockStore) GetSecret(ctx context.Context, identity string) (string, bool, error) {
	args := m.Called(ctx, identity)
	return args.String(0), args.Bool(1), args.Error(2)
}

// GetIdentitiesBySecret provides a mock function.
func (m *MockStore) GetIdentitiesBySecret(ctx context.Context, secret string, limit int) ([]string, error) {
	args := m.Called(ctx, secret, limit)
	var identities []string
	if v := args.Get(0); v != nil {
		identities = v.([]string)
	}
	return identities, args.Error(1)
}

// SetSecret provides a mock function.
func (m *MockStore) SetSecret(ctx context.Context, identity, secret string) error {
	args := m.Called(ctx, identity, secret)
	return args.Error(0)
}

// SetInverseMembership provides a mock function.
func (m *MockStore) SetInverseMembership(ctx context.Context, secret, identity string) error {
	args := m.Called(ctx, secret, identity)
	return args.Error(0)
}
