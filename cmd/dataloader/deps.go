// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth/mysql"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth/postgres"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/config"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/logging"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/store"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/txn"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/xdg"
)

// Backend is an open database ready to run auth transactions.
type Backend struct {
	Transactor auth.Transactor
	Retryable  func(error) bool
	Close      func()
}

// Deps contains injectable dependencies for the login commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// BackendFactory opens the configured database.
	// Default: openBackend
	BackendFactory func(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error)

	// Registerer receives the auth metrics.
	// Default: a fresh prometheus.Registry
	Registerer prometheus.Registerer

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer
}

func (d *Deps) withDefaults() Deps {
	var out Deps
	if d != nil {
		out = *d
	}
	if out.BackendFactory == nil {
		out.BackendFactory = openBackend
	}
	if out.Registerer == nil {
		out.Registerer = prometheus.NewRegistry()
	}
	if out.LogWriter == nil {
		out.LogWriter = os.Stderr
	}
	return out
}

// openBackend connects to the database selected by cfg.Driver.
func openBackend(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	driver, err := store.ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	switch driver {
	case store.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.URL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Transactor: mysql.NewTransactor(db),
			Retryable:  mysql.IsRetryable,
			Close:      func() { _ = db.Close() },
		}, nil
	default:
		pool, err := postgres.Open(ctx, cfg.URL, int32(cfg.MaxConns)) //nolint:gosec // validated by config
		if err != nil {
			return nil, err
		}
		return &Backend{
			Transactor: postgres.NewTransactor(pool),
			Retryable:  postgres.IsRetryable,
			Close:      pool.Close,
		}, nil
	}
}

// loadConfig reads the layered configuration for cmd. Without --config the
// XDG default config file is used if it exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		var err error
		if path, err = xdg.DefaultConfigFile(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs the configured default logger.
func setupLogging(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.SetDefault(logging.Options{
		Service: "dataloader",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  w,
	}), nil
}

// app is the wired login service of one command invocation.
type app struct {
	service *auth.Service
	logger  *slog.Logger
	close   func()
}

// newApp builds the login service from configuration.
func newApp(ctx context.Context, cmd *cobra.Command, deps *Deps) (*app, error) {
	d := deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabaseURL(); err != nil {
		return nil, err
	}
	logger, err := setupLogging(cfg, d.LogWriter)
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewArgon2Hasher(auth.Params{
		Iterations: cfg.Auth.Iterations,
		MemoryKiB:  cfg.Auth.MemoryKiB,
	})
	if err != nil {
		return nil, err
	}

	backend, err := d.BackendFactory(ctx, cfg.Database)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "connect to database").
			With("driver", cfg.Database.Driver).
			Wrap(err)
	}

	exec, err := txn.NewExecutor[auth.Tx](backend.Transactor, txn.Config{
		Workers:    cfg.Executor.Workers,
		MaxRetries: cfg.Executor.MaxRetries,
		RetryBase:  cfg.Executor.RetryBase,
		Retryable:  backend.Retryable,
		Logger:     logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	center := auth.NewCenter(auth.CenterConfig{
		Logger:  logger,
		Metrics: auth.NewMetrics(d.Registerer),
	})
	service, err := auth.NewService(auth.ServiceConfig{
		Center:   center,
		Hasher:   hasher,
		Executor: exec,
		Logger:   logger,
	})
	if err != nil {
		exec.Close()
		backend.Close()
		return nil, err
	}

	return &app{
		service: service,
		logger:  logger,
		close: func() {
			exec.Close()
			backend.Close()
		},
	}, nil
}
