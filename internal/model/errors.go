package model

import "errors"

// The engine reports failures as exactly one of these kinds, wrapped
// with a human-readable detail message. Callers match with errors.Is
// and translate to transport codes.
var (
	// ErrNotFound is returned when a workshop, attendee, or
	// registration does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange is returned when a start date falls after an end
	// date.
	ErrInvalidRange = errors.New("start date after end date")

	// ErrPastDate is returned when a date that must be today or later
	// lies in the past.
	ErrPastDate = errors.New("date is in the past")

	// ErrInvariantViolation is returned when an immutable field would
	// change, such as the start date of an ongoing workshop.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrIllegalTransition is returned when a date edit would reopen a
	// completed workshop.
	ErrIllegalTransition = errors.New("illegal state transition")

	// ErrIllegalState is returned when an action is forbidden in the
	// workshop's current lifecycle state.
	ErrIllegalState = errors.New("action not allowed in current state")

	// ErrAlreadyRegistered is returned when an attendee is already
	// registered for a workshop.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrAlreadyDeleted is returned when a workshop was already
	// soft-deleted.
	ErrAlreadyDeleted = errors.New("already deleted")

	// ErrAlreadySubmitted is returned when feedback was already given
	// for a registration.
	ErrAlreadySubmitted = errors.New("feedback already submitted")

	// ErrInvalidRating is returned when a rating is missing or outside
	// the 0-5 range.
	ErrInvalidRating = errors.New("rating must be between 0 and 5")

	// ErrConflict is returned when an attendee's email or phone number
	// is already taken.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned when a request is missing required
	// fields.
	ErrValidation = errors.New("invalid input")
)
