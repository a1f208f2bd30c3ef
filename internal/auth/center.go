// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/pkg/errutil"
)

// CenterConfig holds the optional collaborators of a Center.
type CenterConfig struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *Metrics
}

// Center implements the login state machine: name resolution, account
// creation and login completion. Every method runs against the caller's Tx
// and performs no commit or rollback of its own.
type Center struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewCenter creates a Center.
func NewCenter(cfg CenterConfig) *Center {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{
		logger:  logger.With("component", "auth"),
		metrics: cfg.Metrics,
	}
}

// violation builds, logs and counts an invariant violation.
func (c *Center) violation(ctx context.Context, operation string, builder oops.OopsErrorBuilder, format string, args ...any) error {
	err := builder.
		With("operation", operation).
		Wrapf(ErrInvariantViolation, format, args...)
	c.metrics.recordViolation(operation)
	errutil.LogErrorContext(ctx, c.logger, "auth invariant violated", err)
	return err
}
