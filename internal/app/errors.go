package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrSchema marks a pipeline whose schema cannot be derived. It is fatal
	// for the prediction view.
	ErrSchema = errors.New("pipeline schema unavailable")
	// ErrEvaluation marks an evaluation that could not be computed. It is
	// fatal for the results view.
	ErrEvaluation = errors.New("evaluation failed")
)
