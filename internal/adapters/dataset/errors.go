package dataset

import "errors"

// Sentinel kinds for split loading errors. All of them are fatal for the
// results view.
var (
	ErrRead      = errors.New("read split file")
	ErrMalformed = errors.New("malformed split file")
	ErrMismatch  = errors.New("features and labels disagree")
)
