// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, Code(err))
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	fields := oopsErr.Context()
	require.Contains(t, fields, key)
	assert.Equal(t, value, fields[key])
}

// AssertErrorHint asserts that err is an oops error carrying the given hint.
func AssertErrorHint(t *testing.T, err error, hint string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, hint, oopsErr.Hint())
}

// FieldError is an error that reports one message per invalid input field.
type FieldError interface {
	error
	FieldMessages() map[string]string
}

// AssertFieldErrors asserts that err unwraps to a FieldError reporting exactly
// the fields in want. An empty message in want matches any message.
func AssertFieldErrors(t *testing.T, err error, want map[string]string) {
	t.Helper()
	var fieldErr FieldError
	require.True(t, errors.As(err, &fieldErr), "expected field error, got %T", err)
	got := fieldErr.FieldMessages()
	require.Len(t, got, len(want), "fields: %v", got)
	for field, msg := range want {
		require.Contains(t, got, field)
		if msg == "" {
			assert.NotEmpty(t, got[field], "empty message for %s", field)
			continue
		}
		assert.Equal(t, msg, got[field], "message for %s", field)
	}
}
