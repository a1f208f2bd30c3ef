// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package authtest provides an in-memory auth.Transactor for tests.
package authtest

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
)

// Store is an in-memory database of credentials and identities with the same
// uniqueness rules as the real schema: usernames are unique case-insensitively
// and UUIDs are unique. Transactions are serialized and see a private copy of
// the data that replaces the committed state on success.
type Store struct {
	mu        sync.Mutex
	state     state
	commits   int
	rollbacks int

	// BeforeInsertCredential, if set, runs inside the transaction before
	// each credential insert. Tests use it to stage a competing writer.
	BeforeInsertCredential func(tx *Tx, cred auth.Credential)

	// Fail, if set, is consulted before every statement. A non-nil error is
	// returned from that statement.
	Fail func(op string) error
}

type state struct {
	credentials map[string]auth.CredentialRow // keyed by lowercase username
	identities  map[uuid.UUID]auth.UserID
	nextID      auth.UserID
}

func (s state) clone() state {
	return state{
		credentials: maps.Clone(s.credentials),
		identities:  maps.Clone(s.identities),
		nextID:      s.nextID,
	}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		state: state{
			credentials: make(map[string]auth.CredentialRow),
			identities:  make(map[uuid.UUID]auth.UserID),
			nextID:      1,
		},
	}
}

// InTransaction implements auth.Transactor.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx auth.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{store: s, state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		s.rollbacks++
		return err
	}
	s.state = tx.state
	s.commits++
	return nil
}

// Commits returns the number of committed transactions.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Rollbacks returns the number of rolled back transactions.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

// Credential returns the committed credential row for username, matched
// case-insensitively.
func (s *Store) Credential(username string) (auth.CredentialRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.state.credentials[strings.ToLower(username)]
	return row, ok
}

// UserID returns the committed user ID for id.
func (s *Store) UserID(id uuid.UUID) (auth.UserID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.state.identities[id]
	return userID, ok
}

// Counts returns the number of committed credential and identity rows.
func (s *Store) Counts() (credentials, identities int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.credentials), len(s.state.identities)
}

// Seed commits a credential and, if id is not uuid.Nil, an identity row,
// bypassing the login logic.
func (s *Store) Seed(cred auth.Credential, id uuid.UUID) auth.UserID {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Tx{store: s, state: s.state}
	defer func() { s.state = tx.state }()
	tx.put(cred.Row())
	if id == uuid.Nil {
		return 0
	}
	return tx.identity(id)
}

// Tx is a transaction over a Store.
type Tx struct {
	store *Store
	state state
}

func (t *Tx) fail(op string) error {
	if t.store.Fail == nil {
		return nil
	}
	return t.store.Fail(op)
}

// Put writes a credential row unconditionally, overwriting any row that
// claims the same name. Intended for BeforeInsertCredential hooks.
func (t *Tx) Put(cred auth.Credential) {
	t.put(cred.Row())
}

func (t *Tx) put(row auth.CredentialRow) {
	t.state.credentials[strings.ToLower(row.Username)] = row
}

func (t *Tx) identity(id uuid.UUID) auth.UserID {
	if userID, ok := t.state.identities[id]; ok {
		return userID
	}
	userID := t.state.nextID
	t.state.nextID++
	t.state.identities[id] = userID
	return userID
}

// FindCredential implements auth.Tx.
func (t *Tx) FindCredential(_ context.Context, username string) (auth.Credential, error) {
	if err := t.fail("FindCredential"); err != nil {
		return auth.Credential{}, err
	}
	row, ok := t.state.credentials[strings.ToLower(username)]
	if !ok {
		return auth.Credential{}, auth.ErrNotFound
	}
	return row.Credential()
}

// InsertCredential implements auth.Tx.
func (t *Tx) InsertCredential(_ context.Context, cred auth.Credential) (bool, error) {
	if t.store.BeforeInsertCredential != nil {
		t.store.BeforeInsertCredential(t, cred)
	}
	if err := t.fail("InsertCredential"); err != nil {
		return false, err
	}
	if _, ok := t.state.credentials[strings.ToLower(cred.Username)]; ok {
		return false, nil
	}
	t.put(cred.Row())
	return true, nil
}

// ResetCredential implements auth.Tx.
func (t *Tx) ResetCredential(_ context.Context, username string) (int64, error) {
	if err := t.fail("ResetCredential"); err != nil {
		return 0, err
	}
	key := strings.ToLower(username)
	row, ok := t.state.credentials[key]
	if !ok {
		return 0, nil
	}
	t.state.credentials[key] = auth.AutoPermit(row.Username).Row()
	return 1, nil
}

// InsertIdentity implements auth.Tx.
func (t *Tx) InsertIdentity(_ context.Context, id uuid.UUID) (bool, error) {
	if err := t.fail("InsertIdentity"); err != nil {
		return false, err
	}
	if _, ok := t.state.identities[id]; ok {
		return false, nil
	}
	t.identity(id)
	return true, nil
}

// FindUserID implements auth.Tx.
func (t *Tx) FindUserID(_ context.Context, id uuid.UUID) (auth.UserID, error) {
	if err := t.fail("FindUserID"); err != nil {
		return 0, err
	}
	userID, ok := t.state.identities[id]
	if !ok {
		return 0, auth.ErrNotFound
	}
	return userID, nil
}

// UpdateIdentityUUID implements auth.Tx.
func (t *Tx) UpdateIdentityUUID(_ context.Context, from, to uuid.UUID) (int64, error) {
	if err := t.fail("UpdateIdentityUUID"); err != nil {
		return 0, err
	}
	userID, ok := t.state.identities[from]
	if !ok {
		return 0, nil
	}
	if _, taken := t.state.identities[to]; taken {
		return 0, fmt.Errorf("duplicate key value violates unique constraint on uuid %s", to)
	}
	delete(t.state.identities, from)
	t.state.identities[to] = userID
	return 1, nil
}

// Compile-time interface checks.
var (
	_ auth.Transactor = (*Store)(nil)
	_ auth.Tx         = (*Tx)(nil)
)
