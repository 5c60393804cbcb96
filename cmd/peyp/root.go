// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"store":          "store.driver",
	"postgres-url":   "store.postgres.url",
	"redis-addr":     "store.redis.addr",
	"redis-password": "store.redis.password",
	"redis-db":       "store.redis.db",
	"timeout":        "store.timeout",
	"session-path":   "session.path",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"metrics-addr":   "metrics.addr",
}

// NewRootCmd creates the root command. Zero-valued deps use the real
// implementations.
func NewRootCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peyp",
		Short: "Please Enter Your Password",
		Long: `peyp signs you in with a username and password. Get the password
right but the username wrong and it tells you who else uses that password,
so you can sign in as them instead.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/peyp/config.yaml)")
	flags.String("store", config.DriverMemory, "credential store driver: postgres, redis or memory")
	flags.String("postgres-url", "", "PostgreSQL connection URL")
	flags.String("redis-addr", "", "Redis address (host:port)")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database number")
	flags.Duration("timeout", 10*time.Second, "store connect timeout")
	flags.String("session-path", "", "session cache file (default $XDG_STATE_HOME/peyp/session.db)")
	flags.String("log-format", "text", "log format: json or text")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	deps = deps.withDefaults()

	cmd.AddCommand(NewLoginCmd(deps))
	cmd.AddCommand(NewLogoutCmd(deps))
	cmd.AddCommand(NewWhoamiCmd(deps))
	cmd.AddCommand(NewNoteCmd(deps))
	cmd.AddCommand(NewShellCmd(deps))
	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewReconcileCmd(deps))
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
