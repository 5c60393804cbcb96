// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/diragb/pleaseenteryourpassword/internal/challenge"
	"github.com/diragb/pleaseenteryourpassword/internal/config"
	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/memory"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/postgres"
	"github.com/diragb/pleaseenteryourpassword/internal/credential/redis"
	"github.com/diragb/pleaseenteryourpassword/internal/notes"
	"github.com/diragb/pleaseenteryourpassword/internal/observability"
	"github.com/diragb/pleaseenteryourpassword/internal/session"
	"github.com/diragb/pleaseenteryourpassword/internal/xdg"
)

// Deps contains injectable dependencies shared by the subcommands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// StoreOpener connects to the configured credential store.
	// Default: openStore
	StoreOpener func(ctx context.Context, cfg config.StoreConfig) (Backend, error)

	// CacheOpener opens the session cache at path.
	// Default: session.OpenSQLite
	CacheOpener func(ctx context.Context, path string) (SessionCache, error)

	// SessionPathGetter returns the default session cache path.
	// Default: xdg.SessionCachePath
	SessionPathGetter func() (string, error)

	// Verifier gates every submission.
	// Default: challenge.Static
	Verifier challenge.Verifier

	// MigratorFactory creates a schema migrator from a database URL.
	// Default: postgres.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, gatherer prometheus.Gatherer, ready observability.ReadinessChecker, logger *slog.Logger) (ObservabilityServer, error)
}

// storage is what every credential store driver provides.
type storage interface {
	credential.Store
	credential.InverseScanner
	notes.Store
}

// Backend is a connected credential store.
type Backend interface {
	storage
	Close() error
}

// SessionCache is a session.Cache holding resources.
type SessionCache interface {
	session.Cache
	Close() error
}

// Migrator wraps the methods used by the migrate command from postgres.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	PendingMigrations() ([]uint, error)
	Force(version int) error
	Close() error
}

// ObservabilityServer wraps the methods used by the shell from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d Deps) withDefaults() Deps {
	if d.StoreOpener == nil {
		d.StoreOpener = openStore
	}
	if d.CacheOpener == nil {
		d.CacheOpener = func(ctx context.Context, path string) (SessionCache, error) {
			cache, err := session.OpenSQLite(ctx, path)
			if err != nil {
				return nil, err
			}
			return cache, nil
		}
	}
	if d.SessionPathGetter == nil {
		d.SessionPathGetter = xdg.SessionCachePath
	}
	if d.Verifier == nil {
		d.Verifier = challenge.Static{}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			m, err := postgres.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, gatherer prometheus.Gatherer, ready observability.ReadinessChecker, logger *slog.Logger) (ObservabilityServer, error) {
			server, err := observability.NewServer(addr, gatherer, ready, logger)
			if err != nil {
				return nil, err
			}
			return server, nil
		}
	}
	return d
}

// backend adapts drivers whose Close differs from Backend's.
type backend struct {
	storage
	close func() error
}

func (b backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openStore connects to the driver named by cfg.
func openStore(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Postgres.URL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return backend{storage: store, close: func() error {
			store.Close()
			return nil
		}}, nil
	case config.DriverRedis:
		store, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return backend{storage: memory.New()}, nil
	}
}
