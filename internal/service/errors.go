package service

import (
	"errors"
	"fmt"
)

// Two error kinds cross the service boundary: conflicts with a uniqueness
// invariant and anything the caller is not allowed to do or know about.
// Handlers map the kind, tests match the specific sentinel.
var (
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrInvalidInput = errors.New("invalid input")

	ErrUsernameTaken   = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrEmailTaken      = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrEmailLoginTaken = fmt.Errorf("%w: email already in use as a login for another account", ErrConflict)

	ErrWrongCredentials    = fmt.Errorf("%w: wrong credentials", ErrUnauthenticated)
	ErrInvalidRefreshToken = fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthenticated)
	ErrInvalidCode         = fmt.Errorf("%w: invalid or expired code", ErrUnauthenticated)
	ErrCodeExpired         = fmt.Errorf("%w: code expired, request a new one", ErrUnauthenticated)
	ErrUserNotFound        = fmt.Errorf("%w: user not found", ErrUnauthenticated)
)
