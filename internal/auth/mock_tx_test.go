// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
)

// mockTx is a testify mock of auth.Tx for statement results the in-memory
// store never produces.
type mockTx struct {
	mock.Mock
}

func (m *mockTx) FindCredential(ctx context.Context, username string) (auth.Credential, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(auth.Credential), args.Error(1)
}

func (m *mockTx) InsertCredential(ctx context.Context, cred auth.Credential) (bool, error) {
	args := m.Called(ctx, cred)
	return args.Bool(0), args.Error(1)
}

func (m *mockTx) ResetCredential(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTx) InsertIdentity(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTx) FindUserID(ctx context.Context, id uuid.UUID) (auth.UserID, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(auth.UserID), args.Error(1)
}

func (m *mockTx) UpdateIdentityUUID(ctx context.Context, from, to uuid.UUID) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

var _ auth.Tx = (*mockTx)(nil)
