package scoring

import (
	"errors"
	"fmt"
)

// Sentinel kinds for scoring errors. All of them are recoverable: the
// caller keeps the form and shows the message.
var (
	ErrMissingColumn = errors.New("record is missing an expected column")
	ErrScoringFailed = errors.New("scoring failed")
	ErrInvalidOutput = errors.New("classifier returned an invalid result")
)

// Error records the stage a scoring attempt failed in.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }
