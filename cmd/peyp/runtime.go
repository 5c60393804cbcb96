// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/config"
	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/logging"
	"github.com/diragb/pleaseenteryourpassword/internal/observability"
	"github.com/diragb/pleaseenteryourpassword/internal/session"
	"github.com/diragb/pleaseenteryourpassword/internal/xdg"
	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

// loadConfig resolves configuration for cmd. An explicit --config file must
// exist; the XDG default is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	src := config.Sources{
		File:         configFile,
		FileRequired: configFile != "",
		Flags:        cmd.Flags(),
		FlagKeys:     flagKeys,
	}
	if src.File == "" {
		if path, err := xdg.ConfigFile(); err == nil {
			src.File = path
		}
	}
	return config.Load(src)
}

// runtime is the assembled application for one command invocation.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *credential.Metrics
	store    Backend
	engine   *credential.Engine
	cache    SessionCache
	sessions *session.Manager
}

// newRuntime connects the store, replays the session cache and waits for it
// to be ready.
func newRuntime(ctx context.Context, cmd *cobra.Command, deps Deps) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.Setup(logging.Options{
		Service: "peyp",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, registry: observability.NewRegistry()}
	rt.metrics = credential.NewMetrics(rt.registry)

	rt.store, err = deps.StoreOpener(ctx, cfg.Store)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("driver", cfg.Store.Driver).Wrap(err)
	}

	rt.engine, err = credential.NewEngine(rt.store,
		credential.WithLogger(logger),
		credential.WithMetrics(rt.metrics),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	path := cfg.Session.Path
	if path == "" {
		if path, err = deps.SessionPathGetter(); err != nil {
			rt.Close()
			return nil, oops.Code("SESSION_PATH_FAILED").
				Hint("set session.path or --session-path").
				Wrap(err)
		}
	}
	rt.cache, err = deps.CacheOpener(ctx, path)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.sessions, err = session.NewManager(rt.cache, session.WithLogger(logger))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.sessions.Start(ctx)
	if err := rt.sessions.Wait(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	logger.DebugContext(ctx, "runtime ready",
		"driver", cfg.Store.Driver,
		"session_path", path,
	)
	return rt, nil
}

// Close releases the cache and the store connection.
func (r *runtime) Close() {
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			errutil.LogError(r.logger, "failed to close session cache", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errutil.LogError(r.logger, "failed to close credential store", err)
		}
	}
}
