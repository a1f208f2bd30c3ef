// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package txn runs transactional units of work on a bounded worker pool.
//
// Each unit runs inside one transaction obtained from a Transactor. Units
// failing with an error the storage backend marks as retryable (serialization
// failures, deadlocks) are re-run from scratch in a fresh transaction with
// exponential backoff. Callers get a Future and never block on the pool.
package txn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

var tracer = otel.Tracer("dataloader/txn")

// Executor defaults.
const (
	DefaultWorkers    = 8
	DefaultMaxRetries = 3
	DefaultRetryBase  = 10 * time.Millisecond
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("executor is closed")

// Transactor runs fn inside a transaction of type Tx, committing if fn
// returns nil and rolling back otherwise.
type Transactor[Tx any] interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Config configures an Executor. Zero values select the defaults.
type Config struct {
	// Workers bounds the number of units running at once.
	Workers int

	// MaxRetries bounds re-runs of a unit after a retryable failure.
	MaxRetries uint64

	// RetryBase is the first backoff delay; it doubles with each retry.
	RetryBase time.Duration

	// Retryable reports whether a failed transaction may be re-run.
	// Nil disables retries.
	Retryable func(error) bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Executor dispatches transactional work onto a bounded pool.
type Executor[Tx any] struct {
	transactor Transactor[Tx]
	sem        *semaphore.Weighted
	maxRetries uint64
	retryBase  time.Duration
	retryable  func(error) bool
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor creates an Executor running transactions from transactor.
func NewExecutor[Tx any](transactor Transactor[Tx], cfg Config) (*Executor[Tx], error) {
	if transactor == nil {
		return nil, oops.Code("TXN_INVALID_CONFIG").Errorf("transactor is required")
	}
	if cfg.Workers < 0 {
		return nil, oops.Code("TXN_INVALID_CONFIG").With("workers", cfg.Workers).Errorf("workers must not be negative")
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Executor[Tx]{
		transactor: transactor,
		sem:        semaphore.NewWeighted(int64(cfg.Workers)),
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		retryable:  cfg.Retryable,
		logger:     cfg.Logger.With("component", "txn"),
	}, nil
}

// InTransaction runs fn in a transaction on the calling goroutine, re-running
// it on retryable failures. It does not take a worker slot.
func (e *Executor[Tx]) InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, span := tracer.Start(ctx, "txn.run")
	defer span.End()

	attempts := 0
	backoff := retry.WithMaxRetries(e.maxRetries, retry.NewExponential(e.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := e.transactor.InTransaction(ctx, fn)
		if err != nil && e.retryable != nil && e.retryable(err) {
			e.logger.DebugContext(ctx, "transaction failed, retrying",
				"attempt", attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		return err
	})

	span.SetAttributes(attribute.Int("txn.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err //nolint:wrapcheck // fn errors pass through unchanged
}

// Close stops accepting work and waits for submitted work to finish.
func (e *Executor[Tx]) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

// track registers one unit of work unless the executor is closed.
func (e *Executor[Tx]) track() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.wg.Add(1)
	return true
}

// Go runs fn on the pool. fn may call e.InTransaction any number of times,
// which lets CPU-heavy preparation happen before a connection is taken.
func Go[Tx, T any](e *Executor[Tx], ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	if !e.track() {
		return failed[T](oops.Code("TXN_EXECUTOR_CLOSED").Wrap(ErrClosed))
	}

	f := newFuture[T]()
	go func() {
		defer e.wg.Done()

		if err := e.sem.Acquire(ctx, 1); err != nil {
			f.complete(*new(T), oops.Code("TXN_CANCELLED").Wrap(err))
			return
		}
		defer e.sem.Release(1)

		var (
			value T
			err   error
		)
		if perr := oops.Code("TXN_PANIC").Recover(func() {
			value, err = fn(ctx)
		}); perr != nil {
			e.logger.ErrorContext(ctx, "unit of work panicked", "error", perr)
			err = perr
		}
		f.complete(value, err)
	}()
	return f
}

// Submit runs fn inside one transaction on the pool and returns its result.
// A failed unit yields the zero value of T.
func Submit[Tx, T any](e *Executor[Tx], ctx context.Context, fn func(ctx context.Context, tx Tx) (T, error)) *Future[T] {
	return Go(e, ctx, func(ctx context.Context) (T, error) {
		var out T
		err := e.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
			v, err := fn(ctx, tx)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
		if err != nil {
			return *new(T), err
		}
		return out, nil
	})
}
