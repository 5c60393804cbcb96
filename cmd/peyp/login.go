// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/diragb/pleaseenteryourpassword/internal/credential"
	"github.com/diragb/pleaseenteryourpassword/internal/login"
)

type loginOptions struct {
	identity string
	secret   string
	register bool
	// pick accepts the first alternative without asking.
	pick bool
}

// NewLoginCmd creates the login subcommand.
func NewLoginCmd(deps Deps) *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in, or register a new account",
		Long: `Log in with a username and password. When the password is right but
the username is not, peyp offers the accounts that do use that password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, deps, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.identity, "username", "u", "", "username (prompted when omitted)")
	cmd.Flags().StringVarP(&opts.secret, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&opts.register, "register", false, "register a new account instead of logging in")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "log in as the first account offered for the password")
	return cmd
}

func runLogin(cmd *cobra.Command, deps Deps, opts *loginOptions) error {
	ctx := commandContext(cmd)
	rt, err := newRuntime(ctx, cmd, deps)
	if err != nil {
		return err
	}
	defer rt.Close()

	flow, err := login.NewFlow(rt.engine, rt.sessions, deps.Verifier, login.WithLogger(rt.logger))
	if err != nil {
		return err
	}
	return interactiveLogin(ctx, newPrompter(cmd), flow, opts)
}

// interactiveLogin collects the credentials, submits them and walks the
// user through registration offers and alternatives until a final result.
func interactiveLogin(ctx context.Context, p *prompter, flow *login.Flow, opts *loginOptions) error {
	identity := opts.identity
	if identity == "" {
		var err error
		if identity, err = p.Line("Username: "); err != nil {
			return err
		}
	}
	secret := opts.secret
	if secret == "" {
		var err error
		if secret, err = p.Secret("Password: "); err != nil {
			return err
		}
	}

	if err := flow.SetIdentity(identity); err != nil {
		return err
	}
	if err := flow.SetSecret(secret); err != nil {
		return err
	}
	if opts.register {
		if err := flow.SetMode(login.ModeRegister); err != nil {
			return err
		}
	}

	result, err := flow.Submit(ctx)
	for {
		if err != nil {
			var verr *credential.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(p.out, verr.Error())
			}
			return err
		}

		switch result.Outcome.Kind {
		case credential.KindSuccess:
			printNotice(p.out, result.Outcome)
			return nil

		case credential.KindIdentityNotFound:
			printNotice(p.out, result.Outcome)
			ok, cerr := p.Confirm(fmt.Sprintf("Register %s?", result.Outcome.Identity))
			if cerr != nil {
				return cerr
			}
			if !ok {
				return oops.Code("LOGIN_REJECTED").
					With("identity", result.Outcome.Identity).
					Errorf("account does not exist")
			}
			result, err = flow.Submit(ctx)

		case credential.KindWrongSecretNoAlternatives:
			printNotice(p.out, result.Outcome)
			return oops.Code("LOGIN_REJECTED").
				With("identity", result.Outcome.Identity).
				Errorf("wrong password")

		case credential.KindWrongSecretWithAlternatives:
			chosen, cerr := chooseAlternative(p, flow, opts.pick)
			if cerr != nil {
				return cerr
			}
			if !chosen {
				return oops.Code("LOGIN_REJECTED").Errorf("no account chosen")
			}
			result, err = flow.Choose(ctx)

		default:
			return oops.Code("LOGIN_FAILED").
				With("outcome", result.Outcome.Kind.String()).
				Errorf("unexpected outcome")
		}
	}
}

// chooseAlternative shows candidates until the user accepts one or quits.
func chooseAlternative(p *prompter, flow *login.Flow, pick bool) (bool, error) {
	for {
		candidate, err := flow.Candidate()
		if err != nil {
			return false, err
		}
		title, description := login.Prompt(candidate)
		fmt.Fprintln(p.out, title)
		fmt.Fprintln(p.out, description)
		if pick {
			return true, nil
		}

		answer, err := p.Line(choiceLabel(candidate))
		if errors.Is(err, errNoInput) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "next":
			flow.Next()
		case "p", "prev", "previous":
			flow.Previous()
		case "q", "quit":
			return false, nil
		default:
			fmt.Fprintln(p.out, "Please answer y, n, p or q.")
		}
	}
}

func choiceLabel(c login.Candidate) string {
	choices := []string{"[y]es"}
	if c.HasNext {
		choices = append(choices, "[n]ext")
	}
	if c.HasPrev {
		choices = append(choices, "[p]revious")
	}
	choices = append(choices, "[q]uit")
	return fmt.Sprintf("(%d/%d) %s: ", c.Index+1, c.Total, strings.Join(choices, ", "))
}

func printNotice(w io.Writer, out credential.Outcome) {
	notice, ok := login.NoticeFor(out)
	if !ok {
		return
	}
	fmt.Fprintln(w, notice.Title)
	fmt.Fprintln(w, notice.Description)
}
