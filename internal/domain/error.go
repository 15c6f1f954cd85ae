package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Dispatch errors surfaced to callers
	ErrValidation        = errors.New("validation failed")
	ErrAdapterNotReady   = errors.New("adapter not ready")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrDeliveryFailure   = errors.New("delivery failed")

	// Persistence errors; these never leave the dispatch component
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrReadDatabaseRow        = errors.New("failed to read database row")
)
