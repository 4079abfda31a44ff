package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not permitted from the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTerminalStatus is returned when any action is attempted on a completed or rejected requisition
	ErrTerminalStatus = errors.New("requisition is closed")
)
