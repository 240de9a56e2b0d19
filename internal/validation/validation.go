// Package validation implements the registration intake checks.
//
// Intake is deliberately laxer than the User entity's own construction
// invariants (username >= 3 here vs >= 4 on the entity, password >= 6 here
// vs stored credential >= 8). The two layers stay separate: intake rejects
// early with a user-facing reason, the entity defends its invariants
// regardless of caller. Do not unify them.
package validation

import (
	"context"

	"github.com/hearthkeep/hearthkeep/internal/storage"
)

// Rejection reasons returned by ValidateNewUser.
const (
	ReasonMissingFields    = "all fields are required"
	ReasonUsernameTaken    = "username is already taken"
	ReasonUsernameTooShort = "username must be at least 3 characters"
	ReasonPasswordMismatch = "passwords do not match"
	ReasonPasswordTooShort = "password must be at least 6 characters"
)

// ValidateNewUser runs the intake checks in order; the first failing check
// wins. It returns "" when the registration is acceptable. The error
// return is reserved for storage failures during the uniqueness check.
func ValidateNewUser(ctx context.Context, users storage.UserStore, username, password, confirmPassword string) (string, error) {
	if username == "" || password == "" || confirmPassword == "" {
		return ReasonMissingFields, nil
	}
	taken, err := users.Exists(ctx, username)
	if err != nil {
		return "", err
	}
	if taken {
		return ReasonUsernameTaken, nil
	}
	if len(username) < 3 {
		return ReasonUsernameTooShort, nil
	}
	if password != confirmPassword {
		return ReasonPasswordMismatch, nil
	}
	if len(password) < 6 {
		return ReasonPasswordTooShort, nil
	}
	return "", nil
}
