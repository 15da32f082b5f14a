// Package usecase implements the business logic for the auth feature.
package usecase

import (
	"errors"
	"time"
)

var (
	// ErrValidation is returned for malformed input. It is wrapped with a
	// human readable detail that may be shown to the client.
	ErrValidation = errors.New("validation error")

	// ErrInvalidCredentials is returned by login and password change.
	// It never distinguishes an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidOrExpiredCode covers wrong, expired and already used codes alike.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// ErrAlreadyRegistered is returned when an account already exists for the email.
	ErrAlreadyRegistered = errors.New("user already exists with this email")

	// ErrEmailNotVerified is returned by registration without a recent verified code.
	ErrEmailNotVerified = errors.New("email verification required")

	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthorized is returned when no valid session identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when an identifier exhausted its attempt budget.
	ErrRateLimited = errors.New("too many attempts")

	// ErrOTPNotFound is returned by the OTP store when no row matches.
	ErrOTPNotFound = errors.New("otp not found")
)

// RateLimitError is returned when a rate limit rule denies an attempt.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() }

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
