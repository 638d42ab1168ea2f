package domain

import "errors"

// Intake validation errors
var (
	ErrInvalidUnit     = errors.New("invalid unit")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidGoal     = errors.New("daily goal must be positive")
	ErrInvalidInterval = errors.New("reminder interval must be between 1 minute and 1 week")
)

// User errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrLastUser     = errors.New("cannot delete the last remaining user")
)

// Scope and persistence errors
var (
	// ErrInactiveScope is returned when an operation targets a user that is not the
	// currently loaded one, or the data for that user is still loading.
	ErrInactiveScope = errors.New("user is not the active scope")
	ErrPersist       = errors.New("failed to persist")
)
