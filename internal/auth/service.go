// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/identity"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/logging"
	"github.com/SolarMC-Dev/DataLoader-sub000/internal/txn"
)

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Center   *Center
	Hasher   PasswordHasher
	Executor *txn.Executor[Tx]

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service runs each login path operation in its own transaction on a
// bounded executor.
type Service struct {
	center *Center
	hasher PasswordHasher
	exec   *txn.Executor[Tx]
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Center == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("center is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if cfg.Executor == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("executor is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		center: cfg.Center,
		hasher: cfg.Hasher,
		exec:   cfg.Executor,
		logger: logger,
	}, nil
}

// attempt tags ctx with a fresh attempt ID and returns a logger for one call.
func (s *Service) attempt(ctx context.Context, op string, id identity.Identity) (context.Context, *slog.Logger) {
	ctx = logging.WithAttempt(ctx, ulid.Make().String())
	return ctx, s.logger.With(
		"operation", op,
		"username", id.Username,
		"uuid", id.UUID.String(),
	)
}

// Resolve runs Center.Resolve in its own transaction.
func (s *Service) Resolve(ctx context.Context, id identity.Identity) *txn.Future[Resolution] {
	ctx, log := s.attempt(ctx, "resolve", id)
	return txn.Submit(s.exec, ctx, func(ctx context.Context, tx Tx) (Resolution, error) {
		res, err := s.center.Resolve(ctx, tx, id)
		if err != nil {
			log.WarnContext(ctx, "resolve failed", "error", err)
			return Resolution{}, err
		}
		log.DebugContext(ctx, "resolve finished", "outcome", res.Outcome.String())
		return res, nil
	})
}

// CreateAccount hashes password and then runs Center.CreateAccount in its
// own transaction. The hash is computed before a connection is taken.
func (s *Service) CreateAccount(ctx context.Context, id identity.Identity, password string) *txn.Future[Creation] {
	ctx, log := s.attempt(ctx, "create account", id)
	return txn.Go(s.exec, ctx, func(ctx context.Context) (Creation, error) {
		pw, err := s.hasher.NewPassword(password)
		if err != nil {
			return Creation{}, oops.Code("AUTH_CREATE_FAILED").
				With("operation", "hash password").
				With("username", id.Username).
				Wrap(err)
		}

		var out Creation
		err = s.exec.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
			res, err := s.center.CreateAccount(ctx, tx, id.Username, pw, id.UUID)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
		if err != nil {
			log.WarnContext(ctx, "create account failed", "error", err)
			return Creation{}, err
		}
		log.DebugContext(ctx, "create account finished", "result", out.Result.String())
		return out, nil
	})
}

// PasswordLogin is the result of Service.LoginWithPassword.
type PasswordLogin struct {
	// Accepted is false when the password did not match.
	Accepted bool

	// Completion is set only when Accepted.
	Completion Completion
}

// LoginWithPassword resolves id, checks password against the stored password
// and completes the login, all in one transaction. For outcomes other than
// OutcomeNeedsPassword the flow carries only the Resolution so the caller can
// route the user elsewhere.
//
// It is the only path to Center.CompleteLogin, so a migration to premium
// always follows a verified password.
func (s *Service) LoginWithPassword(ctx context.Context, id identity.Identity, password string) *txn.Future[PasswordFlow] {
	ctx, log := s.attempt(ctx, "password login", id)
	return txn.Submit(s.exec, ctx, func(ctx context.Context, tx Tx) (PasswordFlow, error) {
		res, err := s.center.Resolve(ctx, tx, id)
		if err != nil {
			log.WarnContext(ctx, "password login failed", "stage", "resolve", "error", err)
			return PasswordFlow{}, err
		}
		flow := PasswordFlow{Resolution: res}
		if res.Outcome != OutcomeNeedsPassword {
			return flow, nil
		}

		ok, err := s.hasher.Verify(res.Password, password)
		if err != nil {
			err = oops.Code("AUTH_VERIFY_FAILED").
				With("username", id.Username).
				Wrap(err)
			log.WarnContext(ctx, "password login failed", "stage", "verify", "error", err)
			return PasswordFlow{}, err
		}
		if !ok {
			log.InfoContext(ctx, "password rejected")
			return flow, nil
		}

		completion, err := s.center.CompleteLogin(ctx, tx, id)
		if err != nil {
			log.WarnContext(ctx, "password login failed", "stage", "complete", "error", err)
			return PasswordFlow{}, err
		}
		flow.Login = PasswordLogin{Accepted: true, Completion: completion}
		log.DebugContext(ctx, "password login finished", "result", completion.Result.String())
		return flow, nil
	})
}

// PasswordFlow is the combined result of Service.LoginWithPassword.
type PasswordFlow struct {
	Resolution Resolution
	Login      PasswordLogin
}
