// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"crypto/rand"
	"errors"
	"math"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Fixed widths of the stored digest and salt columns.
const (
	HashLen = 64
	SaltLen = 32
)

// argon2Threads is fixed at 1 so digests stay reproducible from the
// iterations and memory columns alone.
const argon2Threads = 1

// DefaultParams are the argon2id cost parameters for new passwords.
var DefaultParams = Params{Iterations: 3, MemoryKiB: 64 * 1024}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// MaxCostParam is the largest iterations or memory value the signed 32-bit
// storage columns hold.
const MaxCostParam = math.MaxInt32

// Params are the argon2id cost parameters bound to a stored password.
type Params struct {
	Iterations uint32
	MemoryKiB  uint32
}

// Validate reports whether the parameters can drive the hash function.
// Zero iterations is reserved for auto-permit rows and is never valid here.
func (p Params) Validate() error {
	if p.Iterations == 0 {
		return oops.Code("AUTH_HASHER_MISCONFIGURED").Errorf("iterations must be positive")
	}
	if p.MemoryKiB == 0 {
		return oops.Code("AUTH_HASHER_MISCONFIGURED").Errorf("memory must be positive")
	}
	if p.Iterations > MaxCostParam || p.MemoryKiB > MaxCostParam {
		return oops.Code("AUTH_HASHER_MISCONFIGURED").
			With("max", MaxCostParam).
			Errorf("iterations and memory must fit the storage columns")
	}
	return nil
}

// PasswordHasher produces and checks verifiable passwords.
type PasswordHasher interface {
	// NewPassword hashes password with a fresh salt and the default parameters.
	NewPassword(password string) (VerifiablePassword, error)

	// Verify re-hashes password with the salt and parameters of stored and
	// compares digests. Returns (false, nil) on mismatch.
	Verify(stored VerifiablePassword, password string) (bool, error)
}

// Argon2Hasher implements PasswordHasher using argon2id.
type Argon2Hasher struct {
	params Params
}

// NewArgon2Hasher creates an Argon2Hasher that hashes new passwords with params.
func NewArgon2Hasher(params Params) (*Argon2Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Argon2Hasher{params: params}, nil
}

// Params returns the parameters used for new passwords.
func (h *Argon2Hasher) Params() Params {
	return h.params
}

// Hash computes the argon2id digest of password.
func (h *Argon2Hasher) Hash(password string, salt []byte, params Params) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	digest := argon2.IDKey([]byte(password), salt, params.Iterations, params.MemoryKiB, argon2Threads, HashLen)
	if len(digest) != HashLen {
		return nil, oops.Code("AUTH_HASHER_MISCONFIGURED").
			With("expected", HashLen).
			With("actual", len(digest)).
			Errorf("unexpected digest length")
	}
	return digest, nil
}

// GenerateSalt returns SaltLen cryptographically random bytes.
func (h *Argon2Hasher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	return salt, nil
}

// NewPassword hashes password with a fresh salt.
func (h *Argon2Hasher) NewPassword(password string) (VerifiablePassword, error) {
	if password == "" {
		return VerifiablePassword{}, oops.Code("AUTH_EMPTY_PASSWORD").Wrap(ErrEmptyPassword)
	}
	salt, err := h.GenerateSalt()
	if err != nil {
		return VerifiablePassword{}, err
	}
	digest, err := h.Hash(password, salt, h.params)
	if err != nil {
		return VerifiablePassword{}, err
	}
	return NewVerifiablePassword(digest, salt, h.params)
}

// Verify checks password against stored.
func (h *Argon2Hasher) Verify(stored VerifiablePassword, password string) (bool, error) {
	if stored.IsZero() {
		return false, oops.Code("AUTH_INVALID_PASSWORD").Errorf("stored password is empty")
	}
	digest, err := h.Hash(password, stored.salt, stored.params)
	if err != nil {
		return false, err
	}
	candidate, err := NewVerifiablePassword(digest, stored.salt, stored.params)
	if err != nil {
		return false, err
	}
	return stored.Matches(candidate), nil
}

// EmptyHash returns a zero-filled placeholder digest.
func EmptyHash() []byte {
	return make([]byte, HashLen)
}

// EmptySalt returns a zero-filled placeholder salt.
func EmptySalt() []byte {
	return make([]byte, SaltLen)
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2Hasher)(nil)
