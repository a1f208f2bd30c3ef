// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package identity classifies player UUIDs as premium or cracked and derives
// the offline UUID that cracked accounts are keyed by.
//
// Premium UUIDs are issued by the platform as random (version 4) UUIDs.
// Cracked UUIDs are name-based (version 3): the MD5 of "OfflinePlayer:" plus
// the username. The derivation must never change, since it is used both to
// create identity rows and to find them again.
package identity

import (
	"crypto/md5" //nolint:gosec // legacy offline UUID convention, not a security boundary
	"fmt"

	"github.com/google/uuid"
)

// offlinePrefix is prepended to the username before hashing.
const offlinePrefix = "OfflinePlayer:"

// Kind labels an identity as premium or cracked.
type Kind uint8

// Identity kinds.
const (
	Cracked Kind = iota
	Premium
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Premium:
		return "premium"
	case Cracked:
		return "cracked"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsPremium reports whether id is a platform-assigned (version 4) UUID.
func IsPremium(id uuid.UUID) bool {
	return id.Version() == 4
}

// Classify returns the Kind of id.
func Classify(id uuid.UUID) Kind {
	if IsPremium(id) {
		return Premium
	}
	return Cracked
}

// OfflineUUID derives the name-based UUID used for cracked accounts.
// The username is hashed exactly as given; callers must not normalise case.
func OfflineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte(offlinePrefix + username)) //nolint:gosec // see import
	sum[6] = (sum[6] & 0x0f) | 0x30                  // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80                  // RFC 4122 variant
	return uuid.UUID(sum)
}

// Identity is a connecting user as presented to the login path.
type Identity struct {
	UUID     uuid.UUID
	Username string
}

// New creates an Identity.
func New(id uuid.UUID, username string) Identity {
	return Identity{UUID: id, Username: username}
}

// Kind returns the classification of the identity's UUID.
func (i Identity) Kind() Kind {
	return Classify(i.UUID)
}

// IsPremium reports whether the identity's UUID is premium-classified.
func (i Identity) IsPremium() bool {
	return IsPremium(i.UUID)
}

// OfflineUUID returns the offline UUID derived from the identity's username.
func (i Identity) OfflineUUID() uuid.UUID {
	return OfflineUUID(i.Username)
}

// IsConsistent reports whether a cracked identity's UUID matches the
// derivation from its username. Premium identities are always consistent.
func (i Identity) IsConsistent() bool {
	if i.IsPremium() {
		return true
	}
	return i.UUID == i.OfflineUUID()
}

// String implements fmt.Stringer.
func (i Identity) String() string {
	return fmt.Sprintf("%s/%s", i.Username, i.UUID)
}
