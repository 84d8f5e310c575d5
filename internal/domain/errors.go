package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of all caller-input errors. These fail fast,
// locally, and are never retried.
var ErrValidation = errors.New("validation error")

var (
	// ErrInvalidFormat marks a recipient that is not E.164.
	ErrInvalidFormat = fmt.Errorf("%w: invalid recipient format", ErrValidation)

	// ErrWrongIdentifierType marks a sender identifier that is not a
	// 15-digit phone number ID (a 16-digit value is a business account ID).
	ErrWrongIdentifierType = fmt.Errorf("%w: wrong identifier type", ErrValidation)

	// ErrWindowClosed marks a free-form send outside the 24-hour
	// customer-service window.
	ErrWindowClosed = fmt.Errorf("%w: customer service window closed", ErrValidation)

	// ErrMissingTimezone marks a last-inbound timestamp without offset
	// information. Naive timestamps are rejected, not coerced.
	ErrMissingTimezone = fmt.Errorf("%w: timestamp lacks timezone offset", ErrValidation)

	// ErrMissingCredential marks an empty access token.
	ErrMissingCredential = fmt.Errorf("%w: access token is required", ErrValidation)
)
