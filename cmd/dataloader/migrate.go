// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/store"
)

// migrator is the part of store.Migrator used by the migrate commands.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// migratorFactory opens a migrator for the configured database. Tests
// replace it.
var migratorFactory = func(driver store.Driver, url string) (migrator, error) {
	m, err := store.NewMigrator(driver, url)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the auth schema",
		Long: `Apply or roll back the auth_passwords and user_ids schema migrations on the
configured PostgreSQL or MySQL database. Without a subcommand all pending
migrations are applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, runMigrateUp)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, runMigrateUp)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations, dropping the auth tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(cmd *cobra.Command, m migrator, _ store.Driver) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back -N (pass -- before a negative N)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(cmd *cobra.Command, m migrator, _ store.Driver) error {
				if err := m.Steps(n); err != nil {
					return err
				}
				cmd.Printf("Applied %d migration steps\n", n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the migration version without running migrations",
		Long: `Set the recorded migration version and clear the dirty flag. Use it only
after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(cmd *cobra.Command, m migrator, _ store.Driver) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Forced migration version to %d\n", v)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, runMigrateStatus)
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(cmd *cobra.Command, m migrator, driver store.Driver) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabaseURL(); err != nil {
		return err
	}
	driver, err := store.ParseDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}

	m, err := migratorFactory(driver, cfg.Database.URL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() { _ = m.Close() }()

	return fn(cmd, m, driver)
}

func runMigrateUp(cmd *cobra.Command, m migrator, _ store.Driver) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("Schema is up to date")
		return nil
	}

	cmd.Printf("Running %d migrations...\n", len(pending))
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, m migrator, driver store.Driver) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	cmd.Printf("Driver: %s\nVersion: %d (%s)\n", driver, version, state)
	printMigrations(cmd, driver, "Applied", applied)
	printMigrations(cmd, driver, "Pending", pending)
	return nil
}

func printMigrations(cmd *cobra.Command, driver store.Driver, title string, versions []uint) {
	if len(versions) == 0 {
		cmd.Printf("%s: none\n", title)
		return
	}
	cmd.Printf("%s:\n", title)
	for _, v := range versions {
		name, err := store.MigrationName(driver, v)
		if err != nil || name == "" {
			name = fmt.Sprintf("%06d", v)
		}
		cmd.Printf("  %s\n", name)
	}
}

// parseForceVersion parses the leading integer of s.
func parseForceVersion(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var v int
	if _, err := fmt.Sscanf(trimmed, "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return v, nil
}
