// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"bytes"
	"crypto/subtle"

	"github.com/samber/oops"
)

// VerifiablePassword is a stored password digest together with the salt and
// cost parameters that produced it. The zero value holds no password.
type VerifiablePassword struct {
	hash   []byte
	salt   []byte
	params Params
}

// NewVerifiablePassword creates a validated VerifiablePassword.
// The hash and salt are copied.
func NewVerifiablePassword(hash, salt []byte, params Params) (VerifiablePassword, error) {
	if len(hash) != HashLen {
		return VerifiablePassword{}, oops.Code("AUTH_INVALID_PASSWORD").
			With("length", len(hash)).
			Errorf("password hash must be %d bytes", HashLen)
	}
	if len(salt) != SaltLen {
		return VerifiablePassword{}, oops.Code("AUTH_INVALID_PASSWORD").
			With("length", len(salt)).
			Errorf("password salt must be %d bytes", SaltLen)
	}
	if err := params.Validate(); err != nil {
		return VerifiablePassword{}, err
	}
	return VerifiablePassword{
		hash:   bytes.Clone(hash),
		salt:   bytes.Clone(salt),
		params: params,
	}, nil
}

// Hash returns a copy of the digest.
func (p VerifiablePassword) Hash() []byte { return bytes.Clone(p.hash) }

// Salt returns a copy of the salt.
func (p VerifiablePassword) Salt() []byte { return bytes.Clone(p.salt) }

// Params returns the cost parameters.
func (p VerifiablePassword) Params() Params { return p.params }

// IsZero reports whether p holds no password.
func (p VerifiablePassword) IsZero() bool { return len(p.hash) == 0 }

// Matches reports whether other carries the same digest as p. Salt and
// parameters are not compared: other is expected to be the user's input
// re-hashed with p's salt and parameters.
func (p VerifiablePassword) Matches(other VerifiablePassword) bool {
	if p.IsZero() || other.IsZero() {
		return false
	}
	return subtle.ConstantTimeCompare(p.hash, other.hash) == 1
}

// Credential is the ownership record of a username.
type Credential struct {
	// Username is stored in its exact case. Uniqueness is case-insensitive.
	Username string

	// Password is nil for auto-permit credentials owned by a premium identity.
	Password *VerifiablePassword
}

// AutoPermit creates a credential that is never checked for a password.
func AutoPermit(username string) Credential {
	return Credential{Username: username}
}

// PasswordCredential creates a credential secured by password.
func PasswordCredential(username string, password VerifiablePassword) Credential {
	return Credential{Username: username, Password: &password}
}

// IsAutoPermit reports whether the credential belongs to a premium identity.
func (c Credential) IsAutoPermit() bool {
	return c.Password == nil
}

// CredentialRow is the fixed-width storage encoding of a Credential.
// Iterations == 0 encodes an auto-permit credential, whose Hash and Salt are
// zero-filled placeholders.
type CredentialRow struct {
	Username   string
	Iterations uint32
	Memory     uint32
	Hash       []byte
	Salt       []byte
}

// Row encodes c for storage.
func (c Credential) Row() CredentialRow {
	if c.Password == nil {
		return CredentialRow{
			Username: c.Username,
			Hash:     EmptyHash(),
			Salt:     EmptySalt(),
		}
	}
	return CredentialRow{
		Username:   c.Username,
		Iterations: c.Password.params.Iterations,
		Memory:     c.Password.params.MemoryKiB,
		Hash:       c.Password.Hash(),
		Salt:       c.Password.Salt(),
	}
}

// Credential decodes r.
func (r CredentialRow) Credential() (Credential, error) {
	if r.Iterations == 0 {
		return AutoPermit(r.Username), nil
	}
	password, err := NewVerifiablePassword(r.Hash, r.Salt, Params{Iterations: r.Iterations, MemoryKiB: r.Memory})
	if err != nil {
		return Credential{}, oops.Code("AUTH_CORRUPT_CREDENTIAL").
			With("username", r.Username).
			Wrap(err)
	}
	return PasswordCredential(r.Username, password), nil
}
