package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyJoined is returned when an entry/decision pair already exists
	// for the (event, entrant) key. Callers should treat it as success-equivalent.
	ErrAlreadyJoined = errors.New("already joined")

	// ErrInvalidConfiguration is returned when an event is missing required
	// draw parameters (a positive number of winners).
	ErrInvalidConfiguration = errors.New("invalid event configuration")

	// ErrNothingToDraw is returned when a draw finds no pending decisions.
	ErrNothingToDraw = errors.New("nothing to draw")

	// ErrInvalidTransition is returned when a respond or draw targets a
	// decision that is not in the required source state, or when the caller
	// does not match the decision's entrant.
	ErrInvalidTransition = errors.New("invalid decision transition")

	// ErrRegistrationClosed is returned when joining outside the event's
	// registration window or when the event is not open.
	ErrRegistrationClosed = errors.New("registration closed")

	// ErrEventFull is returned when the event's max entrants cap is reached.
	ErrEventFull = errors.New("event waiting list full")

	// ErrPartialDispatchFailure is returned when one or more notification
	// recipients failed. The triggering state transition has already
	// committed; failed dispatches are retryable independently.
	ErrPartialDispatchFailure = errors.New("partial dispatch failure")

	// ErrForbidden is returned when the caller is not allowed to act on the
	// target resource (e.g. drawing an event they do not own).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when the request is structurally invalid.
	ErrInvalidInput = errors.New("invalid input")
)
