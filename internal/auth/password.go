package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hearthkeep/hearthkeep/internal/coordinator"
	"github.com/hearthkeep/hearthkeep/internal/models"
	"github.com/hearthkeep/hearthkeep/internal/storage"
	"github.com/hearthkeep/hearthkeep/internal/validation"
)

// ErrInvalidCredentials is returned for a bad username or password. The
// two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

// PasswordAuthenticator implements password-based registration and login
// using bcrypt. Hashing lives here, above the core: the User entity only
// ever stores the hash.
type PasswordAuthenticator struct {
	users storage.UserStore
	coord *coordinator.Coordinator
}

// NewPasswordAuthenticator creates a password-based authenticator.
func NewPasswordAuthenticator(users storage.UserStore, coord *coordinator.Coordinator) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, coord: coord}
}

// Register runs intake validation, hashes the password and persists the
// new account. The returned reason is non-empty when intake validation
// rejected the request; it is user-facing text, not an error.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, password, confirmPassword string) (*models.User, string, error) {
	reason, err := validation.ValidateNewUser(ctx, a.users, username, password, confirmPassword)
	if err != nil {
		return nil, "", err
	}
	if reason != "" {
		return nil, reason, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := models.NewUser(username, string(hash))
	if err != nil {
		return nil, "", err
	}
	if err := a.coord.RegisterUser(ctx, user); err != nil {
		return nil, "", err
	}
	return user, "", nil
}

// Authenticate verifies the username and password, returning the user if
// valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.Load(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
