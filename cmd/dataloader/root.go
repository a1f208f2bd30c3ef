// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command with the default dependencies.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataloader",
		Short: "dataloader - login name ownership for premium and cracked players",
		Long: `dataloader decides who owns a player name on a network that admits both
premium (online-mode) and cracked (offline-mode) clients. It resolves logins,
creates password-protected cracked accounts and migrates them to premium
owners, backed by PostgreSQL or MySQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newResolveCmd(deps))
	cmd.AddCommand(newCreateAccountCmd(deps))
	cmd.AddCommand(newLoginCmd(deps))

	return cmd
}
