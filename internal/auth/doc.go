// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

// Package auth resolves name ownership between premium and cracked accounts.
//
// # Domain Types
//
// Credentials pair a username with either a VerifiablePassword (a cracked
// account) or nothing at all (an auto-permit account owned by a premium
// identity). Construct them with:
//   - PasswordCredential - a cracked account secured by a password
//   - AutoPermit - a premium-owned name that is never checked for a password
//
// The iterations == 0 sentinel used by fixed-width schemas only exists in
// CredentialRow, which storage adapters use to translate at the boundary.
//
// # Operations
//
// Center implements the login state machine against a Tx:
//   - Resolve - classify a login attempt into one of five outcomes
//   - CreateAccount - claim a name for a new cracked account
//   - CompleteLogin - finish a login, migrating cracked accounts to premium
//
// Service runs each of those in its own transaction on a bounded executor
// and returns futures.
//
// No in-process lock guards any of this. Unique indexes and affected-row
// counts are the only arbiters, since several servers share one database.
package auth
