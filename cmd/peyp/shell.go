// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/login"
	"github.com/diragb/pleaseenteryourpassword/internal/notes"
	"github.com/diragb/pleaseenteryourpassword/internal/observability"
	"github.com/diragb/pleaseenteryourpassword/internal/session"
	"github.com/diragb/pleaseenteryourpassword/pkg/errutil"
)

const shellHelp = `Commands:
  login [USERNAME]   log in, or register when the account does not exist
  register           register a new account
  logout             forget the current session
  whoami             show the logged-in account
  note               print your note
  note set TEXT      replace your note
  help               show this help
  quit               leave the shell`

// NewShellCmd creates the shell subcommand.
func NewShellCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Start an interactive session that keeps the store connection open.
With --metrics-addr set, metrics and health endpoints are served while the
shell runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, deps)
		},
	}
	cmd.Flags().String("metrics-addr", "", "metrics and health server address (empty disables it)")
	return cmd
}

type shell struct {
	cmd      *cobra.Command
	deps     Deps
	rt       *runtime
	notes    *notes.Service
	prompter *prompter
}

func runShell(cmd *cobra.Command, deps Deps) error {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	rt, err := newRuntime(ctx, cmd, deps)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := notes.NewService(rt.store, rt.sessions, rt.logger)
	if err != nil {
		return err
	}

	var obsServer ObservabilityServer
	if rt.cfg.Metrics.Addr != "" {
		observability.RegisterSessionGauge(rt.registry, func() bool {
			return rt.sessions.State().Authenticated
		})
		obsServer, err = deps.ObservabilityServerFactory(rt.cfg.Metrics.Addr, rt.registry,
			observability.ClosedChannel(rt.sessions.Ready()), rt.logger)
		if err != nil {
			return err
		}
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SHELL_START_FAILED").With("component", "observability").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, rt.logger, obsErrChan, "observability")
		rt.logger.Info("observability server started", "addr", obsServer.Addr())
	}

	events, unsubscribe := rt.sessions.Subscribe()
	defer unsubscribe()
	go watchSessionEvents(ctx, rt.logger, events)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sh := &shell{cmd: cmd, deps: deps, rt: rt, notes: svc, prompter: newPrompter(cmd)}
	done := make(chan error, 1)
	go func() { done <- sh.loop(ctx) }()

	select {
	case sig := <-sigChan:
		rt.logger.Info("received shutdown signal", "signal", sig)
		err = nil
	case err = <-done:
	case <-ctx.Done():
		rt.logger.Info("context cancelled, shutting down")
		err = nil
	}

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			errutil.LogError(rt.logger, "error stopping observability server", stopErr)
		}
	}
	return err
}

// loop reads commands until quit or end of input.
func (s *shell) loop(ctx context.Context) error {
	s.cmd.Println("Welcome to Please Enter Your Password. Type help for commands.")
	for {
		line, err := s.prompter.Line("peyp> ")
		if errors.Is(err, errNoInput) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		rest = strings.TrimSpace(rest)
		switch name {
		case "":
		case "quit", "exit":
			return nil
		case "help":
			s.cmd.Println(shellHelp)
		case "login":
			s.report(s.login(ctx, &loginOptions{identity: rest}))
		case "register":
			s.report(s.login(ctx, &loginOptions{register: true}))
		case "logout":
			if err := s.rt.sessions.Logout(ctx); err != nil {
				s.report(err)
				continue
			}
			s.cmd.Println("Logged out.")
		case "whoami":
			printWhoami(s.cmd, s.rt.sessions)
		case "note":
			s.report(s.note(ctx, rest))
		default:
			s.cmd.Printf("Unknown command %q. Type help for commands.\n", name)
		}
	}
}

func (s *shell) login(ctx context.Context, opts *loginOptions) error {
	flow, err := login.NewFlow(s.rt.engine, s.rt.sessions, s.deps.Verifier, login.WithLogger(s.rt.logger))
	if err != nil {
		return err
	}
	return interactiveLogin(ctx, s.prompter, flow, opts)
}

func (s *shell) note(ctx context.Context, args string) error {
	sub, text, _ := strings.Cut(args, " ")
	switch sub {
	case "", "get":
		text, found, err := s.notes.Get(ctx)
		if err != nil {
			return err
		}
		if !found {
			s.cmd.Println("No note yet.")
			return nil
		}
		s.cmd.Println(text)
	case "set":
		if _, err := s.notes.Set(ctx, strings.TrimSpace(text)); err != nil {
			return err
		}
		s.cmd.Println("Note saved.")
	default:
		s.cmd.Printf("Unknown note command %q.\n", sub)
	}
	return nil
}

// report prints a failed command's error and hint. The shell keeps running.
func (s *shell) report(err error) {
	if err == nil {
		return
	}
	switch errutil.Code(err) {
	case "LOGIN_REJECTED", "CREDENTIAL_INVALID":
		// Already explained on the way out.
		return
	}
	s.cmd.PrintErrln("Error:", err)
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Hint() != "" {
		s.cmd.PrintErrln("Hint:", oopsErr.Hint())
	}
}

// watchSessionEvents logs session transitions until ctx ends or the
// subscription is cancelled.
func watchSessionEvents(ctx context.Context, logger *slog.Logger, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event {
			case session.EventLoggedOut:
				logger.InfoContext(ctx, "session ended, returning to login")
			default:
				logger.InfoContext(ctx, "session event", "event", event.String())
			}
		}
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			errutil.LogError(logger, "server error, triggering shutdown", err)
			logger.Error("server failed", "server", serverName)
			cancel()
		}
	case <-ctx.Done():
	}
}
