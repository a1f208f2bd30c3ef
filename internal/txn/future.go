// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package txn

import "context"

// Future is the pending result of work submitted to an Executor.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// failed returns a Future already completed with err.
func failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.complete(*new(T), err)
	return f
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done. Giving up on
// the wait does not cancel the work itself.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the result is available.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
