// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package login_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/diragb/pleaseenteryourpassword/internal/challenge"
)

func TestFlow_SubmitSpanParentsEngineSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, challenge.Static{})
	f.enter(t, "alice", "hunter2")
	_, err := f.flow.Submit(context.Background())
	require.NoError(t, err)

	spans := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}
	submit, ok := spans["login.submit"]
	require.True(t, ok, "login.submit span missing")
	resolve, ok := spans["credential.resolve"]
	require.True(t, ok, "credential.resolve span missing")

	assert.Equal(t, submit.SpanContext().TraceID(), resolve.SpanContext().TraceID())
	assert.Equal(t, submit.SpanContext().SpanID(), resolve.Parent().SpanID())
}
