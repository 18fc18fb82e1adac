package workflow

import "errors"

// Sentinel errors for workflow transitions.
var (
	// ErrInvalidTransition is returned when an operation is not legal in
	// the current state.
	ErrInvalidTransition = errors.New("workflow: invalid transition")

	// ErrSubmitInFlight is returned when a submission is attempted while
	// an earlier one is still persisting.
	ErrSubmitInFlight = errors.New("workflow: submit in flight")

	// ErrValidation is returned when a form fails validation; the field
	// errors are available from the controller snapshot.
	ErrValidation = errors.New("workflow: validation failed")
)
