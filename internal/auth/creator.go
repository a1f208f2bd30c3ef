// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/identity"
)

// CreateAccount claims username for a new cracked account secured by
// password. CreateResultConflict means another account already owns the name
// case-insensitively and nothing was written.
//
// The identity row is keyed by the offline UUID of username. A claimed UUID
// that differs from it returns ErrIdentityMismatch; the caller's transaction
// must then be rolled back.
func (c *Center) CreateAccount(ctx context.Context, tx Tx, username string, password VerifiablePassword, claimed uuid.UUID) (Creation, error) {
	if err := ValidateUsername(username); err != nil {
		return Creation{}, err
	}
	if password.IsZero() {
		return Creation{}, oops.Code("AUTH_INVALID_PASSWORD").
			With("username", username).
			Errorf("account password cannot be empty")
	}

	inserted, err := tx.InsertCredential(ctx, PasswordCredential(username, password))
	if err != nil {
		return Creation{}, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "insert credential").
			With("username", username).
			Wrap(err)
	}
	if !inserted {
		c.logger.InfoContext(ctx, "account name already claimed", "username", username)
		c.metrics.recordCreation(CreateResultConflict)
		return Creation{Result: CreateResultConflict}, nil
	}

	offline := identity.OfflineUUID(username)
	if claimed != offline {
		err := oops.Code("AUTH_IDENTITY_MISMATCH").
			With("username", username).
			With("claimed", claimed.String()).
			With("derived", offline.String()).
			Wrap(ErrIdentityMismatch)
		c.metrics.recordViolation("create account")
		return Creation{}, err
	}

	inserted, err = tx.InsertIdentity(ctx, offline)
	if err != nil {
		return Creation{}, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "insert identity").
			With("uuid", offline.String()).
			Wrap(err)
	}
	if !inserted {
		return Creation{}, c.violation(ctx, "create account", oops.Code("AUTH_IDENTITY_EXISTS").
			With("username", username).
			With("uuid", offline.String()),
			"identity row exists for a name that had no credential")
	}

	userID, err := tx.FindUserID(ctx, offline)
	if errors.Is(err, ErrNotFound) {
		return Creation{}, c.violation(ctx, "create account", oops.Code("AUTH_IDENTITY_VANISHED").With("uuid", offline.String()),
			"identity row missing right after insert")
	}
	if err != nil {
		return Creation{}, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "find user id").
			With("uuid", offline.String()).
			Wrap(err)
	}

	c.logger.InfoContext(ctx, "created cracked account",
		"username", username,
		"uuid", offline.String(),
		"user_id", userID,
	)
	c.metrics.recordCreation(CreateResultCreated)
	return Creation{Result: CreateResultCreated, UserID: userID}, nil
}
