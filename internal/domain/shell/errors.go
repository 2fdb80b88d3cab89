package shell

import "errors"

// Sentinel kinds for navigation errors.
var (
	ErrInvalidTransition = errors.New("invalid navigation")
	ErrUnknownView       = errors.New("unknown view")
)
