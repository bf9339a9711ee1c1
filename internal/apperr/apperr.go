// Package apperr holds the error taxonomy shared by the inventory, booking
// and ticket packages.  Handlers map the four kinds onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrNotFound         = errors.New("not found")
	ErrSeatUnavailable  = errors.New("seat unavailable")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSignatureInvalid = errors.New("signature invalid")
)

// Specific errors, each wrapping its kind.
var (
	ErrShowNotFound    = fmt.Errorf("show %w", ErrNotFound)
	ErrSeatNotFound    = fmt.Errorf("seat %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

	ErrNoSeats         = fmt.Errorf("%w: seat_ids must not be empty", ErrInvalidRequest)
	ErrMissingHolder   = fmt.Errorf("%w: holder identity is required", ErrInvalidRequest)
	ErrNegativeAmount  = fmt.Errorf("%w: total_amount cannot be negative", ErrInvalidRequest)
	ErrMissingCustomer = fmt.Errorf("%w: customer name and email are required", ErrInvalidRequest)
)

// Invalid builds an InvalidRequest error with a formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalid checks if the error is a validation error
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidRequest) }
