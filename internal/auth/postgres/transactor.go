// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
)

// beginner is the subset of pgxpool.Pool used by Transactor.
type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Transactor implements auth.Transactor over a connection pool. Transactions
// run at REPEATABLE READ; conflicting concurrent writers fail with a
// serialization error that IsRetryable reports.
type Transactor struct {
	pool beginner
}

// NewTransactor creates a Transactor backed by the given pool.
func NewTransactor(pool beginner) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction and calls fn with a Store bound to it.
// If fn returns nil, the transaction is committed. Otherwise it is rolled back.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context, tx auth.Tx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(ctx, NewStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// IsRetryable reports whether err is a serialization failure or deadlock,
// after which the whole transaction may be run again.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	default:
		return false
	}
}

// Open creates a connection pool for url and verifies connectivity.
// maxConns of zero keeps the pgxpool default.
func Open(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, oops.Code("PG_CONFIG_INVALID").Wrap(err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("PG_CONNECT_FAILED").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("PG_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return pool, nil
}

// Compile-time interface checks.
var (
	_ auth.Transactor = (*Transactor)(nil)
	_ beginner        = (*pgxpool.Pool)(nil)
)
