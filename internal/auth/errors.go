// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvariantViolation marks a storage state that the login logic can never
// produce on its own, such as a single-row update touching several rows.
// The enclosing transaction must be rolled back and the error must not be
// retried.
var ErrInvariantViolation = errors.New("auth invariant violated")

// ErrIdentityMismatch is returned when a cracked identity's UUID does not
// match the offline UUID derived from its username.
var ErrIdentityMismatch = errors.New("identity does not match derived offline uuid")
