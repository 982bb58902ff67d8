package simulator

import "errors"

var (
	// ErrInvalidArgument is returned when a ramp is requested with a
	// non-positive duration or step count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownEventKind is returned when a listener is registered for an
	// event kind outside the battery.EventKinds enumeration.
	ErrUnknownEventKind = errors.New("unknown event kind")
)
