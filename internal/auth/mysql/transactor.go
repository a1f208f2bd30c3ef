// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
)

// MySQL server error numbers after which a transaction may be re-run.
const (
	errLockDeadlock    = 1213 // ER_LOCK_DEADLOCK
	errLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
)

const pingTimeout = 5 * time.Second

// beginner is the subset of *sql.DB used by Transactor.
type beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Transactor implements auth.Transactor over a *sql.DB.
type Transactor struct {
	db beginner
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db beginner) *Transactor {
	return &Transactor{db: db}
}

// InTransaction begins a REPEATABLE READ transaction and calls fn with a
// Store bound to it. If fn returns nil, the transaction is committed.
// Otherwise it is rolled back.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context, tx auth.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(ctx, NewStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// IsRetryable reports whether err is a deadlock or lock wait timeout, after
// which the whole transaction may be run again.
func IsRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errLockDeadlock || myErr.Number == errLockWaitTimeout
}

// Open connects to the database named by dsn and verifies the connection.
// maxConns of zero leaves the pool unbounded.
func Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, oops.Code("MYSQL_CONFIG_INVALID").Wrap(err)
	}
	cfg.Collation = "utf8mb4_general_ci"

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, oops.Code("MYSQL_CONFIG_INVALID").Wrap(err)
	}
	db := sql.OpenDB(connector)

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, oops.Code("MYSQL_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return db, nil
}

// Compile-time interface checks.
var (
	_ auth.Transactor = (*Transactor)(nil)
	_ beginner        = (*sql.DB)(nil)
)
