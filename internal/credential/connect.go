// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry settings applied when a store is opened.
const (
	ConnectAttempts    = 5
	ConnectBaseBackoff = 200 * time.Millisecond
)

// WaitReady pings the store until it answers, backing off exponentially.
// It is only used while opening a store; individual reads and writes are
// never retried.
func WaitReady(ctx context.Context, timeout time.Duration, ping func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	backoff := retry.WithMaxRetries(ConnectAttempts-1, retry.NewExponential(ConnectBaseBackoff))

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return TransportError("ping", oops.With("attempts", attempts).Wrap(err))
	}
	return nil
}
