package charts

import "errors"

// Sentinel kinds for chart rendering errors.
var (
	ErrUndefinedCurve = errors.New("roc curve is undefined for a single-class test set")
	ErrRender         = errors.New("render chart")
)
