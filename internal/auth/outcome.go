// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import "fmt"

// Outcome is the result of resolving name ownership for a login attempt.
type Outcome uint8

// Resolution outcomes.
const (
	// OutcomePremiumPermitted lets a premium identity in without a password.
	OutcomePremiumPermitted Outcome = iota + 1

	// OutcomeNeedsAccount asks a cracked identity to create an account.
	OutcomeNeedsAccount

	// OutcomeNeedsPassword asks for the password of the existing account.
	OutcomeNeedsPassword

	// OutcomeDeniedPremiumTookName rejects a cracked identity whose name is
	// owned by a premium identity.
	OutcomeDeniedPremiumTookName

	// OutcomeDeniedCaseSensitivityOfName rejects a name that is owned by an
	// account spelled with different case.
	OutcomeDeniedCaseSensitivityOfName
)

// String returns the snake_case outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePremiumPermitted:
		return "premium_permitted"
	case OutcomeNeedsAccount:
		return "needs_account"
	case OutcomeNeedsPassword:
		return "needs_password"
	case OutcomeDeniedPremiumTookName:
		return "denied_premium_took_name"
	case OutcomeDeniedCaseSensitivityOfName:
		return "denied_case_sensitivity_of_name"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// IsDenied reports whether the login attempt must be rejected.
func (o Outcome) IsDenied() bool {
	return o == OutcomeDeniedPremiumTookName || o == OutcomeDeniedCaseSensitivityOfName
}

// Resolution is the result of Center.Resolve.
type Resolution struct {
	Outcome Outcome

	// Password is the stored password, set only for OutcomeNeedsPassword.
	Password VerifiablePassword

	// UserID is the caller's user ID, set only for OutcomePremiumPermitted.
	UserID UserID
}

// CreateResult is the result of Center.CreateAccount.
type CreateResult uint8

// Account creation results.
const (
	CreateResultCreated CreateResult = iota + 1
	CreateResultConflict
)

// String returns the lowercase result name.
func (r CreateResult) String() string {
	switch r {
	case CreateResultCreated:
		return "created"
	case CreateResultConflict:
		return "conflict"
	default:
		return fmt.Sprintf("create_result(%d)", uint8(r))
	}
}

// Creation is the result of Center.CreateAccount.
type Creation struct {
	Result CreateResult

	// UserID is set only for CreateResultCreated.
	UserID UserID
}

// CompletionResult is the result of Center.CompleteLogin.
type CompletionResult uint8

// Login completion results.
const (
	// CompletionNormal is an ordinary cracked login.
	CompletionNormal CompletionResult = iota + 1

	// CompletionMigratedToPremium means the cracked account was converted
	// to an auto-permit account owned by the premium identity.
	CompletionMigratedToPremium

	// CompletionIdentityMissing means the identity row the login relied on
	// is gone, because a concurrent or earlier migration moved it away.
	CompletionIdentityMissing
)

// String returns the snake_case result name.
func (r CompletionResult) String() string {
	switch r {
	case CompletionNormal:
		return "normal"
	case CompletionMigratedToPremium:
		return "migrated_to_premium"
	case CompletionIdentityMissing:
		return "identity_missing"
	default:
		return fmt.Sprintf("completion_result(%d)", uint8(r))
	}
}

// Completion is the result of Center.CompleteLogin.
type Completion struct {
	Result CompletionResult

	// UserID is set unless Result is CompletionIdentityMissing.
	UserID UserID
}
