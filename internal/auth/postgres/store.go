// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package postgres implements the auth storage contract on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
)

// querier is the subset of pgx.Tx used by Store. pgxpool.Pool and
// pgxmock satisfy it as well.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements auth.Tx against one PostgreSQL transaction.
type Store struct {
	q querier
}

// NewStore creates a Store issuing statements on q.
func NewStore(q querier) *Store {
	return &Store{q: q}
}

// FindCredential implements auth.Tx.
func (s *Store) FindCredential(ctx context.Context, username string) (auth.Credential, error) {
	var (
		row                auth.CredentialRow
		iterations, memory int64
	)
	err := s.q.QueryRow(ctx, `
		SELECT username, iterations, memory, password_hash, password_salt
		FROM auth_passwords
		WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&row.Username, &iterations, &memory, &row.Hash, &row.Salt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Credential{}, oops.Code("PG_CREDENTIAL_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return auth.Credential{}, oops.Code("PG_QUERY_FAILED").
			With("operation", "find credential").
			With("username", username).
			Wrap(err)
	}
	if iterations < 0 || memory < 0 {
		return auth.Credential{}, oops.Code("AUTH_CORRUPT_CREDENTIAL").
			With("username", username).
			With("iterations", iterations).
			With("memory", memory).
			Errorf("negative hash parameters")
	}
	row.Iterations = uint32(iterations) //nolint:gosec // bounded by INTEGER column
	row.Memory = uint32(memory)         //nolint:gosec // bounded by INTEGER column
	return row.Credential()
}

// InsertCredential implements auth.Tx. The unique index on LOWER(username)
// turns a case-insensitive duplicate into a no-op.
func (s *Store) InsertCredential(ctx context.Context, cred auth.Credential) (bool, error) {
	row := cred.Row()
	tag, err := s.q.Exec(ctx, `
		INSERT INTO auth_passwords (username, iterations, memory, password_hash, password_salt)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, row.Username, int64(row.Iterations), int64(row.Memory), row.Hash, row.Salt)
	if err != nil {
		return false, oops.Code("PG_QUERY_FAILED").
			With("operation", "insert credential").
			With("username", cred.Username).
			Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ResetCredential implements auth.Tx.
func (s *Store) ResetCredential(ctx context.Context, username string) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE auth_passwords
		SET iterations = 0, memory = 0, password_hash = $1, password_salt = $2
		WHERE LOWER(username) = LOWER($3)
	`, auth.EmptyHash(), auth.EmptySalt(), username)
	if err != nil {
		return 0, oops.Code("PG_QUERY_FAILED").
			With("operation", "reset credential").
			With("username", username).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// InsertIdentity implements auth.Tx.
func (s *Store) InsertIdentity(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO user_ids (uuid) VALUES ($1)
		ON CONFLICT (uuid) DO NOTHING
	`, id.String())
	if err != nil {
		return false, oops.Code("PG_QUERY_FAILED").
			With("operation", "insert identity").
			With("uuid", id.String()).
			Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

// FindUserID implements auth.Tx.
func (s *Store) FindUserID(ctx context.Context, id uuid.UUID) (auth.UserID, error) {
	var userID int64
	err := s.q.QueryRow(ctx, `SELECT id FROM user_ids WHERE uuid = $1`, id.String()).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, oops.Code("PG_IDENTITY_NOT_FOUND").
			With("uuid", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("PG_QUERY_FAILED").
			With("operation", "find user id").
			With("uuid", id.String()).
			Wrap(err)
	}
	return auth.UserID(userID), nil
}

// UpdateIdentityUUID implements auth.Tx.
func (s *Store) UpdateIdentityUUID(ctx context.Context, from, to uuid.UUID) (int64, error) {
	tag, err := s.q.Exec(ctx, `UPDATE user_ids SET uuid = $1 WHERE uuid = $2`, to.String(), from.String())
	if err != nil {
		return 0, oops.Code("PG_QUERY_FAILED").
			With("operation", "update identity uuid").
			With("from", from.String()).
			With("to", to.String()).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.Tx = (*Store)(nil)
