package model

import "errors"

// Sentinel errors for cell coercion.
var (
	ErrMissingValue = errors.New("missing value")
	ErrNotNumeric   = errors.New("value is not numeric")
	ErrNotLabel     = errors.New("value is not a category label")
)
