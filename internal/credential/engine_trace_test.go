// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/memory"
	"github.com/diragb/pleaseenteryourpassword/internal/logging"
)

// logLines decodes every JSON record written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func TestEngine_SpansCarryIntoLogs(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	logger, err := logging.Setup(logging.Options{Service: "peyp", Format: "json", Level: "debug"}, &buf)
	require.NoError(t, err)
	engine := newEngine(t, memory.New(), credential.WithLogger(logger))

	_, err = engine.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	out, err := engine.Resolve(ctx, "alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, credential.KindSuccess, out.Kind)

	traceIDs := make(map[string]string)
	for _, span := range recorder.Ended() {
		traceIDs[span.Name()] = span.SpanContext().TraceID().String()
	}
	require.Contains(t, traceIDs, "credential.register")
	require.Contains(t, traceIDs, "credential.resolve")

	logged := make(map[string]any)
	for _, entry := range logLines(t, &buf) {
		logged[entry["msg"].(string)] = entry["trace_id"]
	}
	assert.Equal(t, traceIDs["credential.register"], logged["identity registered"])
	assert.Equal(t, traceIDs["credential.resolve"], logged["credentials resolved"])
}
