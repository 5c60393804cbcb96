// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/diragb/pleaseenteryourpassword/internal/config"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/memory"
	"github.com/diragb/pleaseenteryourpassword/internal/session"
)

// nopCloseCache gives a MemoryCache the Close method SessionCache needs.
type nopCloseCache struct {
	*session.MemoryCache
}

func (nopCloseCache) Close() error { return nil }

// testEnv shares one store and one session cache across command runs, the
// way a real store and session file outlive a single invocation.
type testEnv struct {
	store *memory.Store
	cache *session.MemoryCache
	deps  Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	env := &testEnv{store: memory.New(), cache: session.NewMemoryCache()}
	env.deps = Deps{
		StoreOpener: func(context.Context, config.StoreConfig) (Backend, error) {
			return backend{storage: env.store}, nil
		},
		CacheOpener: func(context.Context, string) (SessionCache, error) {
			return nopCloseCache{env.cache}, nil
		},
	}
	return env
}

// run executes the root command with stdin and returns everything written.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(e.deps)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

// mustRun is run for commands expected to succeed.
func (e *testEnv) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := e.run(t, stdin, args...)
	if err != nil {
		t.Fatalf("peyp %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (e *testEnv) register(t *testing.T, identity, secret string) {
	t.Helper()
	e.mustRun(t, "", "login", "-u", identity, "-p", secret, "--register")
	e.mustRun(t, "", "logout")
}
