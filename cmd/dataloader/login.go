// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/identity"
)

// identityFlags are the flags naming the player of a login command.
type identityFlags struct {
	username string
	uuid     string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "player name (required)")
	cmd.Flags().StringVar(&f.uuid, "uuid", "", "player UUID (default: offline UUID of --username)")
	_ = cmd.MarkFlagRequired("username")
}

// identity builds the player identity. Without --uuid the player is cracked.
func (f *identityFlags) identity() (identity.Identity, error) {
	if f.uuid == "" {
		return identity.New(identity.OfflineUUID(f.username), f.username), nil
	}
	id, err := uuid.Parse(f.uuid)
	if err != nil {
		return identity.Identity{}, oops.Code("INVALID_UUID").
			With("uuid", f.uuid).
			Wrap(err)
	}
	return identity.New(id, f.username), nil
}

// withApp runs fn against a freshly wired app and releases it afterwards.
func withApp(cmd *cobra.Command, deps *Deps, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd, deps)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func newResolveCmd(deps *Deps) *cobra.Command {
	flags := &identityFlags{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Decide the login path of a player",
		Long: `Resolve who owns the player's name and print the outcome. A premium
player claiming an unowned name is registered as its owner.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			return withApp(cmd, deps, func(ctx context.Context, a *app) error {
				res, err := a.service.Resolve(ctx, id).Wait(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("%s: %s\n", id, res.Outcome)
				if res.UserID != 0 {
					cmd.Printf("user id: %d\n", res.UserID)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newCreateAccountCmd(deps *Deps) *cobra.Command {
	flags := &identityFlags{}
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create a password-protected cracked account",
		Long: `Create a cracked account for --username. The password is read from the
terminal, or from the first line of standard input when it is not a terminal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, deps, func(ctx context.Context, a *app) error {
				res, err := a.service.CreateAccount(ctx, id, password).Wait(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("%s: %s\n", id, res.Result)
				if res.UserID != 0 {
					cmd.Printf("user id: %d\n", res.UserID)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newLoginCmd(deps *Deps) *cobra.Command {
	flags := &identityFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log a player in with a password",
		Long: `Resolve the player's name and, when the account asks for a password,
verify it and complete the login. A premium player logging in with the
password of a cracked account of the same name takes that account over.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := flags.identity()
			if err != nil {
				return err
			}
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, deps, func(ctx context.Context, a *app) error {
				flow, err := a.service.LoginWithPassword(ctx, id, password).Wait(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("%s: %s\n", id, flow.Resolution.Outcome)
				if flow.Login.Accepted {
					cmd.Printf("login: %s\n", flow.Login.Completion.Result)
					if flow.Login.Completion.UserID != 0 {
						cmd.Printf("user id: %d\n", flow.Login.Completion.UserID)
					}
				} else if flow.Resolution.Outcome == auth.OutcomeNeedsPassword {
					return oops.Code("PASSWORD_REJECTED").
						With("username", id.Username).
						Errorf("incorrect password")
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// readPassword prompts on a terminal or reads one line of standard input.
func readPassword(cmd *cobra.Command) (string, error) {
	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) { //nolint:gosec // fd fits in int
		cmd.Print("Password: ")
		pw, err := term.ReadPassword(int(in.Fd())) //nolint:gosec // fd fits in int
		cmd.Println()
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", oops.Code("PASSWORD_READ_FAILED").With("source", "stdin").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
