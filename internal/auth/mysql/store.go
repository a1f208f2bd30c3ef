// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package mysql implements the auth storage contract on MySQL and MariaDB.
//
// Usernames are compared through the case-insensitive collation of the
// auth_passwords primary key. UUIDs are stored as BINARY(16).
package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
)

// querier is the subset of *sql.Tx used by Store.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements auth.Tx against one MySQL transaction.
type Store struct {
	q querier
}

// NewStore creates a Store issuing statements on q.
func NewStore(q querier) *Store {
	return &Store{q: q}
}

// FindCredential implements auth.Tx. The read takes a shared lock so that
// it observes rows committed after the transaction's snapshot, which a
// re-read after a lost INSERT IGNORE race depends on.
func (s *Store) FindCredential(ctx context.Context, username string) (auth.Credential, error) {
	var row auth.CredentialRow
	err := s.q.QueryRowContext(ctx, `
		SELECT username, iterations, memory, password_hash, password_salt
		FROM auth_passwords
		WHERE username = ?
		LOCK IN SHARE MODE
	`, username).Scan(&row.Username, &row.Iterations, &row.Memory, &row.Hash, &row.Salt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Credential{}, oops.Code("MYSQL_CREDENTIAL_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return auth.Credential{}, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", "find credential").
			With("username", username).
			Wrap(err)
	}
	return row.Credential()
}

// InsertCredential implements auth.Tx.
func (s *Store) InsertCredential(ctx context.Context, cred auth.Credential) (bool, error) {
	row := cred.Row()
	res, err := s.q.ExecContext(ctx, `
		INSERT IGNORE INTO auth_passwords (username, iterations, memory, password_hash, password_salt)
		VALUES (?, ?, ?, ?, ?)
	`, row.Username, row.Iterations, row.Memory, row.Hash, row.Salt)
	if err != nil {
		return false, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", "insert credential").
			With("username", cred.Username).
			Wrap(err)
	}
	n, err := rowsAffected(res, "insert credential")
	return n == 1, err
}

// ResetCredential implements auth.Tx.
func (s *Store) ResetCredential(ctx context.Context, username string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE auth_passwords
		SET iterations = 0, memory = 0, password_hash = ?, password_salt = ?
		WHERE username = ?
	`, auth.EmptyHash(), auth.EmptySalt(), username)
	if err != nil {
		return 0, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", "reset credential").
			With("username", username).
			Wrap(err)
	}
	return rowsAffected(res, "reset credential")
}

// InsertIdentity implements auth.Tx.
func (s *Store) InsertIdentity(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.q.ExecContext(ctx, `INSERT IGNORE INTO user_ids (uuid) VALUES (?)`, id[:])
	if err != nil {
		return false, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", "insert identity").
			With("uuid", id.String()).
			Wrap(err)
	}
	n, err := rowsAffected(res, "insert identity")
	return n == 1, err
}

// FindUserID implements auth.Tx.
func (s *Store) FindUserID(ctx context.Context, id uuid.UUID) (auth.UserID, error) {
	var userID int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM user_ids WHERE uuid = ? LOCK IN SHARE MODE`, id[:]).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, oops.Code("MYSQL_IDENTITY_NOT_FOUND").
			With("uuid", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return 0, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", "find user id").
			With("uuid", id.String()).
			Wrap(err)
	}
	return auth.UserID(userID), nil
}

// UpdateIdentityUUID implements auth.Tx.
func (s *Store) UpdateIdentityUUID(ctx context.Context, from, to uuid.UUID) (int64, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE user_ids SET uuid = ? WHERE uuid = ?`, to[:], from[:])
	if err != nil {
		return 0, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", "update identity uuid").
			With("from", from.String()).
			With("to", to.String()).
			Wrap(err)
	}
	return rowsAffected(res, "update identity uuid")
}

func rowsAffected(res sql.Result, operation string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, oops.Code("MYSQL_QUERY_FAILED").
			With("operation", operation).
			Wrapf(err, "rows affected")
	}
	return n, nil
}

// Compile-time interface check.
var _ auth.Tx = (*Store)(nil)
