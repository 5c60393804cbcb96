// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
)

// NewReconcileCmd creates the reconcile subcommand.
func NewReconcileCmd(deps Deps) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair password index entries lost to interrupted registrations",
		Long: `Scan every account and restore its entry in the password index when it
is missing. Accounts are never removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			rt, err := newRuntime(ctx, cmd, deps)
			if err != nil {
				return err
			}
			defer rt.Close()

			reconciler, err := credential.NewReconciler(rt.store, rt.logger, rt.metrics)
			if err != nil {
				return err
			}
			report, err := reconciler.Run(ctx, dryRun)
			if err != nil {
				return err
			}

			cmd.Printf("Scanned %d accounts\n", report.Scanned)
			if len(report.Missing) == 0 {
				cmd.Println("Password index is consistent")
				return nil
			}
			if dryRun {
				cmd.Printf("Missing index entries: %s\n", strings.Join(report.Missing, ", "))
				return nil
			}
			cmd.Printf("Repaired %d index entries: %s\n", report.Repaired, strings.Join(report.Missing, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report missing entries without repairing them")
	return cmd
}
