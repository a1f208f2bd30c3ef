// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserID is the surrogate identity assigned to an account on creation.
type UserID int64

// Tx is the relational query surface bound to one commit/rollback unit.
// Each method is a single statement; reads observe the transaction's own
// earlier writes.
type Tx interface {
	// FindCredential looks up the credential whose username equals username
	// case-insensitively. Returns ErrNotFound if there is none.
	FindCredential(ctx context.Context, username string) (Credential, error)

	// InsertCredential inserts cred unless a credential already claims the
	// username case-insensitively. Reports whether a row was inserted.
	InsertCredential(ctx context.Context, cred Credential) (bool, error)

	// ResetCredential turns the credential for username into an auto-permit
	// credential and returns the number of rows affected.
	ResetCredential(ctx context.Context, username string) (int64, error)

	// InsertIdentity inserts an identity row for id unless one exists.
	// Reports whether a row was inserted.
	InsertIdentity(ctx context.Context, id uuid.UUID) (bool, error)

	// FindUserID returns the user ID of the identity row for id.
	// Returns ErrNotFound if there is none.
	FindUserID(ctx context.Context, id uuid.UUID) (UserID, error)

	// UpdateIdentityUUID rewrites the identity row keyed by from to be keyed
	// by to and returns the number of rows affected.
	UpdateIdentityUUID(ctx context.Context, from, to uuid.UUID) (int64, error)
}

// Transactor runs functions inside a transaction.
type Transactor interface {
	// InTransaction begins a transaction and calls fn with it. The
	// transaction is committed if fn returns nil and rolled back otherwise.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
