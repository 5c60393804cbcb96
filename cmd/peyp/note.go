// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/notes"
)

// NewNoteCmd creates the note command group.
func NewNoteCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Read or write your note",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print your note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			rt, err := newRuntime(ctx, cmd, deps)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc, err := notes.NewService(rt.store, rt.sessions, rt.logger)
			if err != nil {
				return err
			}
			text, found, err := svc.Get(ctx)
			if err != nil {
				return err
			}
			if !found {
				cmd.Println("No note yet.")
				return nil
			}
			cmd.Println(text)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set TEXT...",
		Short: "Replace your note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if err := notes.Validate(text); err != nil {
				return err
			}

			ctx := commandContext(cmd)
			rt, err := newRuntime(ctx, cmd, deps)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc, err := notes.NewService(rt.store, rt.sessions, rt.logger)
			if err != nil {
				return err
			}
			if _, err := svc.Set(ctx, text); err != nil {
				return err
			}
			cmd.Println("Note saved.")
			return nil
		},
	})

	return cmd
}
