// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Length constraints, counted in characters.
const (
	MinIdentityLength = 2
	MaxIdentityLength = 50
	MinSecretLength   = 5
	MaxSecretLength   = 50
)

// Field names a validated input.
type Field string

// Validated fields.
const (
	FieldIdentity Field = "username"
	FieldSecret   Field = "password"
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[Field(k)]))
	}
	return strings.Join(parts, "; ")
}

// Message returns the message for f, or "" when f is valid.
func (e *ValidationError) Message(f Field) string {
	return e.Fields[f]
}

// FieldMessages returns the messages keyed by field name.
func (e *ValidationError) FieldMessages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for f, msg := range e.Fields {
		out[string(f)] = msg
	}
	return out
}

// ValidateIdentity checks the identity length constraints.
func ValidateIdentity(identity string) string {
	n := utf8.RuneCountInString(identity)
	switch {
	case n < MinIdentityLength:
		return fmt.Sprintf("Username must contain at least %d characters", MinIdentityLength)
	case n > MaxIdentityLength:
		return fmt.Sprintf("Username should not be more than %d characters", MaxIdentityLength)
	}
	return ""
}

// ValidateSecret checks the secret length constraints.
func ValidateSecret(secret string) string {
	n := utf8.RuneCountInString(secret)
	switch {
	case n < MinSecretLength:
		return fmt.Sprintf("Password must contain at least %d characters", MinSecretLength)
	case n > MaxSecretLength:
		return fmt.Sprintf("Password should not be more than %d characters", MaxSecretLength)
	}
	return ""
}

// Validate checks both inputs and reports every failing field at once.
// The returned error has code CREDENTIAL_INVALID and unwraps to *ValidationError.
func Validate(identity, secret string) error {
	fields := make(map[Field]string, 2)
	if msg := ValidateIdentity(identity); msg != "" {
		fields[FieldIdentity] = msg
	}
	if msg := ValidateSecret(secret); msg != "" {
		fields[FieldSecret] = msg
	}
	if len(fields) == 0 {
		return nil
	}
	return oops.Code("CREDENTIAL_INVALID").
		With("fields", len(fields)).
		Wrap(&ValidationError{Fields: fields})
}
