package models

import "errors"

var (
	// ErrInvalidArgument is returned by constructors and setters when an
	// input violates an entity invariant (blank name, non-positive amount,
	// unknown priority, and so on).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateMember is returned when adding a user to a group they
	// already belong to.
	ErrDuplicateMember = errors.New("user is already a member")

	// ErrAbsentMember is returned when removing a user from a group they
	// do not belong to.
	ErrAbsentMember = errors.New("user is not a member")
)
