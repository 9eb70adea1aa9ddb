package services

import (
	"errors"
	"fmt"

	"github.com/detailnco/booking-backend/internal/models"
)

var (
	// ErrHoldExpired means a pending booking's soft hold lapsed before the
	// operator acted on it.
	ErrHoldExpired = errors.New("booking hold has expired")

	// ErrNoPayableAmount means an approved booking has no positive stored
	// total; payment is refused rather than defaulting to zero.
	ErrNoPayableAmount = errors.New("booking has no payable amount")

	// ErrNotApproved means a payment operation was attempted on a booking
	// that is not in approved status.
	ErrNotApproved = errors.New("booking is not approved")

	// ErrInvalidPayToken means the supplied pay token did not match.
	ErrInvalidPayToken = errors.New("invalid payment token")
)

// ValidationError reports malformed or missing input, naming the field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AlreadyHandledError reports that a capability token was redeemed for a
// booking already in a terminal state. Not an error to the human clicking
// the link; handlers render it as an informational outcome.
type AlreadyHandledError struct {
	Status models.BookingStatus
}

func (e *AlreadyHandledError) Error() string {
	return fmt.Sprintf("booking already %s", e.Status)
}

// DependencyError reports a failed call to an external collaborator.
// For booking transitions it is downgraded to a warning; the payment gate
// surfaces it as a hard error since there is no transition to protect.
type DependencyError struct {
	Provider string
	Err      error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
