package models

import "errors"

// Domain errors shared across feature packages. Handlers map them to HTTP
// statuses; repositories return them instead of leaking pgx errors.
var (
	// ErrNotFound - the entity vanished between list load and action.
	ErrNotFound = errors.New("not found")
	// ErrForbidden - role or ownership mismatch; fatal to the attempted action.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation - bad input, user-correctable.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition - the submission already left the expected status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrImmutableState - the editable window closed at approval.
	ErrImmutableState = errors.New("submission is no longer editable")
	// ErrAlreadyExists - unique constraint hit on an explicit duplicate.
	ErrAlreadyExists = errors.New("already exists")
)
