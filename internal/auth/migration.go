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

// CompleteLogin finishes a login after the password of an existing account
// was verified.
//
// A cracked identity must carry the offline UUID of its username; anything
// else returns ErrIdentityMismatch. Its user ID is looked up, and a missing
// identity row yields CompletionIdentityMissing.
//
// A premium identity takes over the cracked account: the identity row moves
// from the offline UUID to the premium UUID and the credential becomes
// auto-permit. The UUID update is the mutual exclusion point between
// concurrent migrations; the loser sees zero rows and gets
// CompletionIdentityMissing.
//
// CompleteLogin must run in the same transaction as the reads that led to it.
func (c *Center) CompleteLogin(ctx context.Context, tx Tx, id identity.Identity) (Completion, error) {
	if !id.IsPremium() {
		return c.completeCracked(ctx, tx, id)
	}
	return c.migrate(ctx, tx, id)
}

func (c *Center) completeCracked(ctx context.Context, tx Tx, id identity.Identity) (Completion, error) {
	if !id.IsConsistent() {
		err := oops.Code("AUTH_IDENTITY_MISMATCH").
			With("username", id.Username).
			With("uuid", id.UUID.String()).
			With("derived", id.OfflineUUID().String()).
			Wrap(ErrIdentityMismatch)
		c.metrics.recordViolation("complete login")
		return Completion{}, err
	}

	userID, err := c.findUserID(ctx, tx, id.UUID)
	if errors.Is(err, ErrNotFound) {
		c.logger.InfoContext(ctx, "cracked identity row missing, name was migrated",
			"username", id.Username,
			"uuid", id.UUID.String(),
		)
		return c.completed(Completion{Result: CompletionIdentityMissing}), nil
	}
	if err != nil {
		return Completion{}, err
	}
	return c.completed(Completion{Result: CompletionNormal, UserID: userID}), nil
}

func (c *Center) migrate(ctx context.Context, tx Tx, id identity.Identity) (Completion, error) {
	offline := id.OfflineUUID()

	moved, err := tx.UpdateIdentityUUID(ctx, offline, id.UUID)
	if err != nil {
		return Completion{}, oops.Code("AUTH_MIGRATION_FAILED").
			With("operation", "update identity uuid").
			With("username", id.Username).
			With("from", offline.String()).
			With("to", id.UUID.String()).
			Wrap(err)
	}
	switch {
	case moved == 0:
		c.logger.InfoContext(ctx, "offline identity row already migrated",
			"username", id.Username,
			"uuid", id.UUID.String(),
			"offline_uuid", offline.String(),
		)
		return c.completed(Completion{Result: CompletionIdentityMissing}), nil
	case moved > 1:
		return Completion{}, c.violation(ctx, "migrate identity", oops.Code("AUTH_MIGRATION_ROWCOUNT").
			With("username", id.Username).
			With("rows", moved),
			"identity uuid update affected %d rows", moved)
	}

	reset, err := tx.ResetCredential(ctx, id.Username)
	if err != nil {
		return Completion{}, oops.Code("AUTH_MIGRATION_FAILED").
			With("operation", "reset credential").
			With("username", id.Username).
			Wrap(err)
	}
	if reset != 1 {
		return Completion{}, c.violation(ctx, "reset credential", oops.Code("AUTH_MIGRATION_ROWCOUNT").
			With("username", id.Username).
			With("rows", reset),
			"credential reset affected %d rows", reset)
	}

	userID, err := c.findUserID(ctx, tx, id.UUID)
	if errors.Is(err, ErrNotFound) {
		return Completion{}, c.violation(ctx, "migrate identity", oops.Code("AUTH_IDENTITY_VANISHED").With("uuid", id.UUID.String()),
			"identity row missing right after migration")
	}
	if err != nil {
		return Completion{}, err
	}

	c.logger.InfoContext(ctx, "migrated cracked account to premium",
		"username", id.Username,
		"uuid", id.UUID.String(),
		"offline_uuid", offline.String(),
		"user_id", userID,
	)
	return c.completed(Completion{Result: CompletionMigratedToPremium, UserID: userID}), nil
}

func (c *Center) findUserID(ctx context.Context, tx Tx, id uuid.UUID) (UserID, error) {
	userID, err := tx.FindUserID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, oops.Code("AUTH_COMPLETE_FAILED").
			With("operation", "find user id").
			With("uuid", id.String()).
			Wrap(err)
	}
	return userID, nil
}

func (c *Center) completed(res Completion) Completion {
	c.metrics.recordCompletion(res.Result)
	return res
}
