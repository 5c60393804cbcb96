// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/session"
)

// NewLogoutCmd creates the logout subcommand.
func NewLogoutCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			rt, err := newRuntime(ctx, cmd, deps)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.sessions.Logout(ctx); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

// NewWhoamiCmd creates the whoami subcommand.
func NewWhoamiCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(commandContext(cmd), cmd, deps)
			if err != nil {
				return err
			}
			defer rt.Close()

			printWhoami(cmd, rt.sessions)
			return nil
		},
	}
}

func printWhoami(cmd *cobra.Command, sessions *session.Manager) {
	switch sessions.Decide() {
	case session.DecisionGranted:
		cmd.Printf("Logged in as %s\n", sessions.State().Identity)
	case session.DecisionDenied:
		cmd.Println("Not logged in.")
	default:
		cmd.Println("Session is still loading.")
	}
}

// commandContext returns the command's context, or Background when it was
// run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
