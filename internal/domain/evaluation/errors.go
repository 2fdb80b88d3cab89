package evaluation

import "errors"

// Sentinel kinds for evaluation errors. All of them are fatal for the
// results view.
var (
	ErrEmpty          = errors.New("evaluation set is empty")
	ErrLengthMismatch = errors.New("predictions and labels differ in length")
	ErrBadLabel       = errors.New("label is not 0 or 1")
	ErrPredict        = errors.New("classifier failed on the evaluation set")
)
