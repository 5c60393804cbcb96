// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrTransport marks a failed read or write against the backing store.
var ErrTransport = errors.New("credential store transport failure")

// ErrCursorInactive is returned by Cursor operations that need a candidate
// when the cursor holds none.
var ErrCursorInactive = errors.New("disambiguation cursor is inactive")

// ErrPartialRegistration marks a registration whose forward write landed but
// whose inverse write did not.
var ErrPartialRegistration = errors.New("registration wrote forward index only")

// TransportError wraps a store failure so errors.Is(err, ErrTransport) holds.
// Store implementations use it for every driver error they surface.
func TransportError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return oops.Code("STORE_TRANSPORT").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrTransport, err))
}

// IsTransport reports whether err came from the backing store.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
