// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/auth/authtest"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/identity"
)

// Fixed premium UUIDs (version 4).
var (
	premiumA = uuid.MustParse("069a79f4-44e9-4726-a5be-fca90e38aaf5")
	premiumB = uuid.MustParse("853c80ef-3c37-49fd-aa49-938b674adae6")
)

func premium(id uuid.UUID, username string) identity.Identity {
	return identity.New(id, username)
}

func cracked(username string) identity.Identity {
	return identity.New(identity.OfflineUUID(username), username)
}

// fixture bundles a Center with its store, metrics and captured logs.
type fixture struct {
	center  *auth.Center
	store   *authtest.Store
	metrics *auth.Metrics
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logs := new(bytes.Buffer)
	metrics := auth.NewMetrics(prometheus.NewRegistry())
	return &fixture{
		center: auth.NewCenter(auth.CenterConfig{
			Logger:  slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
			Metrics: metrics,
		}),
		store:   authtest.NewStore(),
		metrics: metrics,
		logs:    logs,
	}
}

func (f *fixture) resolve(t *testing.T, id identity.Identity) auth.Resolution {
	t.Helper()
	res, err := f.tryResolve(id)
	require.NoError(t, err)
	return res
}

func (f *fixture) tryResolve(id identity.Identity) (auth.Resolution, error) {
	var res auth.Resolution
	err := f.store.InTransaction(context.Background(), func(ctx context.Context, tx auth.Tx) error {
		var err error
		res, err = f.center.Resolve(ctx, tx, id)
		return err
	})
	return res, err
}

func (f *fixture) create(t *testing.T, username string, pw auth.VerifiablePassword, claimed uuid.UUID) auth.Creation {
	t.Helper()
	res, err := f.tryCreate(username, pw, claimed)
	require.NoError(t, err)
	return res
}

func (f *fixture) tryCreate(username string, pw auth.VerifiablePassword, claimed uuid.UUID) (auth.Creation, error) {
	var res auth.Creation
	err := f.store.InTransaction(context.Background(), func(ctx context.Context, tx auth.Tx) error {
		var err error
		res, err = f.center.CreateAccount(ctx, tx, username, pw, claimed)
		return err
	})
	return res, err
}

func (f *fixture) complete(t *testing.T, id identity.Identity) auth.Completion {
	t.Helper()
	res, err := f.tryComplete(id)
	require.NoError(t, err)
	return res
}

func (f *fixture) tryComplete(id identity.Identity) (auth.Completion, error) {
	var res auth.Completion
	err := f.store.InTransaction(context.Background(), func(ctx context.Context, tx auth.Tx) error {
		var err error
		res, err = f.center.CompleteLogin(ctx, tx, id)
		return err
	})
	return res, err
}
