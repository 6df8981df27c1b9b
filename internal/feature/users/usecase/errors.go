// Package usecase implements the business logic for the users feature.
package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned when no user exists for the requested ID or username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when the username is already held by another user.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrEmailInUse is returned when the email is already held by another user.
	ErrEmailInUse = errors.New("email is already in use")

	// ErrInvalidUser is returned when a user fails entity validation before a write.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidCredentials is returned by Authenticate for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// notFound attaches the requested ID to ErrUserNotFound.
func notFound(id uint) error {
	return fmt.Errorf("%w with ID: %d", ErrUserNotFound, id)
}
