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

// maxResolveReads bounds the credential reads of one Resolve: the first read
// and one re-read after losing an auto-permit insert race.
const maxResolveReads = 2

// Resolve decides the login path for id.
//
// The credential is looked up case-insensitively. The only write is for a
// premium identity claiming an unowned name, which inserts an auto-permit
// credential and the premium identity row. A premium identity given
// OutcomePremiumPermitted is linked to its user ID.
func (c *Center) Resolve(ctx context.Context, tx Tx, id identity.Identity) (Resolution, error) {
	if err := ValidateUsername(id.Username); err != nil {
		return Resolution{}, err
	}

	for read := 1; read <= maxResolveReads; read++ {
		cred, err := tx.FindCredential(ctx, id.Username)
		if err == nil {
			return c.resolveExisting(ctx, tx, id, cred)
		}
		if !errors.Is(err, ErrNotFound) {
			return Resolution{}, oops.Code("AUTH_RESOLVE_FAILED").
				With("operation", "find credential").
				With("username", id.Username).
				Wrap(err)
		}

		if !id.IsPremium() {
			return c.resolved(ctx, id, Resolution{Outcome: OutcomeNeedsAccount}), nil
		}

		inserted, err := tx.InsertCredential(ctx, AutoPermit(id.Username))
		if err != nil {
			return Resolution{}, oops.Code("AUTH_RESOLVE_FAILED").
				With("operation", "insert auto-permit credential").
				With("username", id.Username).
				Wrap(err)
		}
		if !inserted {
			c.logger.InfoContext(ctx, "lost auto-permit insert race, re-reading credential",
				"username", id.Username,
				"uuid", id.UUID.String(),
				"read", read,
			)
			continue
		}

		userID, err := c.linkPremium(ctx, tx, id.UUID)
		if err != nil {
			return Resolution{}, err
		}
		c.logger.InfoContext(ctx, "created auto-permit account",
			"username", id.Username,
			"uuid", id.UUID.String(),
			"user_id", userID,
		)
		return c.resolved(ctx, id, Resolution{Outcome: OutcomePremiumPermitted, UserID: userID}), nil
	}

	return Resolution{}, oops.Code("AUTH_RESOLVE_UNSTABLE").
		With("username", id.Username).
		With("reads", maxResolveReads).
		Errorf("credential neither found nor insertable")
}

// resolveExisting classifies a login against an existing credential.
func (c *Center) resolveExisting(ctx context.Context, tx Tx, id identity.Identity, cred Credential) (Resolution, error) {
	// The case-insensitive index found the row; ownership needs exact case.
	if cred.Username != id.Username {
		c.logger.DebugContext(ctx, "name owned with different case",
			"username", id.Username,
			"owner", cred.Username,
		)
		return c.resolved(ctx, id, Resolution{Outcome: OutcomeDeniedCaseSensitivityOfName}), nil
	}

	if cred.IsAutoPermit() {
		if !id.IsPremium() {
			return c.resolved(ctx, id, Resolution{Outcome: OutcomeDeniedPremiumTookName}), nil
		}
		userID, err := c.linkPremium(ctx, tx, id.UUID)
		if err != nil {
			return Resolution{}, err
		}
		return c.resolved(ctx, id, Resolution{Outcome: OutcomePremiumPermitted, UserID: userID}), nil
	}

	return c.resolved(ctx, id, Resolution{Outcome: OutcomeNeedsPassword, Password: *cred.Password}), nil
}

// linkPremium ensures an identity row for a premium UUID and returns its ID.
func (c *Center) linkPremium(ctx context.Context, tx Tx, id uuid.UUID) (UserID, error) {
	if _, err := tx.InsertIdentity(ctx, id); err != nil {
		return 0, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "insert premium identity").
			With("uuid", id.String()).
			Wrap(err)
	}
	userID, err := tx.FindUserID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return 0, c.violation(ctx, "link premium", oops.Code("AUTH_IDENTITY_VANISHED").With("uuid", id.String()),
			"identity row missing right after insert")
	}
	if err != nil {
		return 0, oops.Code("AUTH_RESOLVE_FAILED").
			With("operation", "find premium user id").
			With("uuid", id.String()).
			Wrap(err)
	}
	return userID, nil
}

// resolved records and logs a final resolution.
func (c *Center) resolved(ctx context.Context, id identity.Identity, res Resolution) Resolution {
	c.metrics.recordResolution(res.Outcome, id.Kind())
	c.logger.DebugContext(ctx, "resolved login",
		"username", id.Username,
		"uuid", id.UUID.String(),
		"kind", id.Kind().String(),
		"outcome", res.Outcome.String(),
	)
	return res
}
