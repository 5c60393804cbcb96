// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		identity   string
		secret     string
		wantFields []credential.Field
	}{
		{name: "valid pair", identity: "al", secret: "hunter"},
		{name: "upper bounds", identity: strings.Repeat("a", 50), secret: strings.Repeat("s", 50)},
		{name: "identity too short", identity: "a", secret: "hunter2", wantFields: []credential.Field{credential.FieldIdentity}},
		{name: "identity too long", identity: strings.Repeat("a", 51), secret: "hunter2", wantFields: []credential.Field{credential.FieldIdentity}},
		{name: "secret too short", identity: "alice", secret: "1234", wantFields: []credential.Field{credential.FieldSecret}},
		{name: "secret too long", identity: "alice", secret: strings.Repeat("s", 51), wantFields: []credential.Field{credential.FieldSecret}},
		{name: "both invalid", identity: "", secret: "", wantFields: []credential.Field{credential.FieldIdentity, credential.FieldSecret}},
		{name: "multibyte characters count once", identity: "éé", secret: "日本語です"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := credential.Validate(tt.identity, tt.secret)
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CREDENTIAL_INVALID")

			want := make(map[string]string, len(tt.wantFields))
			for _, f := range tt.wantFields {
				want[string(f)] = ""
			}
			errutil.AssertFieldErrors(t, err, want)
		})
	}
}

func TestValidationError_Messages(t *testing.T) {
	err := credential.Validate("a", "1234")

	var verr *credential.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Username must contain at least 2 characters", verr.Message(credential.FieldIdentity))
	assert.Equal(t, "Password must contain at least 5 characters", verr.Message(credential.FieldSecret))
	assert.Equal(t,
		"password: Password must contain at least 5 characters; username: Username must contain at least 2 characters",
		verr.Error())
}
