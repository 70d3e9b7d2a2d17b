package service

import "errors"

// Error kinds. Every error returned by the services unwraps to one of these or is an
// unexpected infrastructure failure.
var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("object storage unavailable")
)

// DomainError is a concrete failure that belongs to an error kind.
type DomainError struct {
	kind    error
	message string
}

func (e *DomainError) Error() string {
	return e.message
}

// Unwrap exposes the kind so callers can match with errors.Is.
func (e *DomainError) Unwrap() error {
	return e.kind
}

// Kind returns the error kind.
func (e *DomainError) Kind() error {
	return e.kind
}

func newDomainError(kind error, message string) *DomainError {
	return &DomainError{kind: kind, message: message}
}

var (
	ErrSessionNotFound         = newDomainError(ErrNotFound, "no such user")
	ErrUserNotFound            = newDomainError(ErrNotFound, "user not found")
	ErrSectionNotFound         = newDomainError(ErrNotFound, "section not found")
	ErrApplicationNotFound     = newDomainError(ErrNotFound, "application not found")
	ErrPriorityNotFound        = newDomainError(ErrNotFound, "section is not part of the application")
	ErrAdjacentPriorityMissing = newDomainError(ErrNotFound, "adjacent priority not found")

	ErrSectionAlreadyAdded = newDomainError(ErrConflict, "section already added to the application")
	ErrEmailTaken          = newDomainError(ErrConflict, "email already registered")

	ErrPriorityAtMaximum     = newDomainError(ErrInvalidState, "priority already at maximum")
	ErrApplicationNotDraft   = newDomainError(ErrInvalidState, "application is not a draft")
	ErrApplicationNotCreated = newDomainError(ErrInvalidState, "application has not been submitted")
	ErrApplicationFinalized  = newDomainError(ErrInvalidState, "application is already finalized")

	ErrNotOwner     = newDomainError(ErrForbidden, "application belongs to another user")
	ErrNotModerator = newDomainError(ErrForbidden, "moderator role required")

	ErrInvalidCredentials = newDomainError(ErrUnauthorized, "invalid email or password")

	ErrInvalidDecision      = newDomainError(ErrInvalidInput, "decision must be completed or rejected")
	ErrInvalidTimeRange     = newDomainError(ErrInvalidInput, "time range must use RFC3339 bounds with from before to")
	ErrImageTooLarge        = newDomainError(ErrInvalidInput, "image exceeds maximum allowed size")
	ErrImageTypeNotAllowed  = newDomainError(ErrInvalidInput, "image must be png, jpeg or webp")
	ErrEmptyAfterSanitizing = newDomainError(ErrInvalidInput, "value is empty after sanitization")
)

// KindOf returns the kind err belongs to, or nil for unexpected failures.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrNotFound,
		ErrConflict,
		ErrInvalidState,
		ErrInvalidInput,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
