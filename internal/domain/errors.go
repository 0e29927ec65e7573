package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of these
// so the transport layer can classify it with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrPermission      = errors.New("permission denied")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrDelivery        = errors.New("delivery failed")
	ErrStorage         = errors.New("storage failure")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)
	ErrTicketNotFound       = fmt.Errorf("ticket %w", ErrNotFound)
	ErrBlobNotFound         = fmt.Errorf("file %w", ErrNotFound)
	ErrItemNotFound         = fmt.Errorf("merchandise item %w", ErrNotFound)
	ErrVariantNotFound      = fmt.Errorf("merchandise variant %w", ErrNotFound)

	ErrUserEmailExists    = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrInsufficientStock  = fmt.Errorf("insufficient stock: %w", ErrConflict)
	ErrStaleVersion       = fmt.Errorf("record was modified concurrently: %w", ErrConflict)
	ErrAlreadyReviewed    = fmt.Errorf("order is not awaiting review: %w", ErrConflict)
	ErrProofNotAccepted   = fmt.Errorf("payment proof can only be submitted while payment is pending: %w", ErrConflict)
	ErrAlreadyAttended    = fmt.Errorf("attendance already marked: %w", ErrConflict)
	ErrTicketExists       = fmt.Errorf("ticket already issued: %w", ErrConflict)

	ErrCredentialExhausted = fmt.Errorf("could not allocate a unique ticket id: %w", ErrStorage)
	ErrBlobStore           = fmt.Errorf("blob store unavailable: %w", ErrStorage)

	ErrNotOwner         = fmt.Errorf("caller does not own this event: %w", ErrPermission)
	ErrNotRecordOwner   = fmt.Errorf("caller does not own this record: %w", ErrPermission)
	ErrParticipantOnly  = fmt.Errorf("only participants can do this: %w", ErrPermission)
	ErrOrganizerOnly    = fmt.Errorf("only organizers can do this: %w", ErrPermission)
	ErrAccountDisabled  = fmt.Errorf("account is disabled: %w", ErrPermission)
	ErrTypeImmutable    = fmt.Errorf("event type cannot be changed: %w", ErrPermission)
	ErrWrongCredentials = fmt.Errorf("wrong email or password: %w", ErrUnauthenticated)
)

// ValidationError carries a field-level message.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}

	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a *ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// FieldLockedError reports an edit to a field that the event's current status does not allow.
type FieldLockedError struct {
	Field  string
	Status EventStatus
}

func (e *FieldLockedError) Error() string {
	return fmt.Sprintf("field %q cannot be edited while the event is %s", e.Field, e.Status)
}

func (e *FieldLockedError) Unwrap() error {
	return ErrPermission
}

// TransitionError reports an illegal lifecycle move.
type TransitionError struct {
	Action string
	From   EventStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an event that is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrConflict
}
