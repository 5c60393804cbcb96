// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package redis_test

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
