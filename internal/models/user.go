package models

import "fmt"

const (
	minUsernameLen   = 4
	minCredentialLen = 8
)

// User represents a registered account.
type User struct {
	// Username uniquely identifies the user and keys their document.
	Username string `json:"username"`

	// Password is the stored credential. The core treats it as opaque;
	// the auth layer above stores a bcrypt hash here, never the raw
	// password a user typed.
	Password string `json:"password"`

	// Groups holds the names of every group the user belongs to.
	// Order carries no meaning.
	Groups []string `json:"groups"`
}

// NewUser constructs a User, enforcing the entity invariants: username at
// least 4 characters, stored credential at least 8. These are deliberately
// stricter than the registration intake checks in the validation package;
// the entity defends itself regardless of which caller constructs it.
func NewUser(username, password string) (*User, error) {
	if len(username) < minUsernameLen {
		return nil, fmt.Errorf("%w: username must be at least %d characters", ErrInvalidArgument, minUsernameLen)
	}
	if len(password) < minCredentialLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, minCredentialLen)
	}
	return &User{
		Username: username,
		Password: password,
		Groups:   []string{},
	}, nil
}

// AddGroup records membership in the named group. Adding a group the user
// already belongs to is a no-op, not an error.
func (u *User) AddGroup(groupName string) {
	for _, g := range u.Groups {
		if g == groupName {
			return
		}
	}
	u.Groups = append(u.Groups, groupName)
}

// InGroup reports whether the user belongs to the named group.
func (u *User) InGroup(groupName string) bool {
	for _, g := range u.Groups {
		if g == groupName {
			return true
		}
	}
	return false
}
