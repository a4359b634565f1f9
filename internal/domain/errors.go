package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped together with a more specific error.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyTopic is returned when a study request names no topic.
	ErrEmptyTopic = errors.New("topic cannot be empty")

	// ErrEmptyQuery is returned when a history or bookmark entry has no query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrQueryTooLong is returned when a query exceeds MaxQueryLength.
	ErrQueryTooLong = errors.New("query is too long")

	// ErrNegativeCount is returned for negative item counts.
	ErrNegativeCount = errors.New("count cannot be negative")
)
