package repository

import "errors"

// ErrResourceUnavailable wraps every load failure. It is fatal for the view
// that needed the resource.
var ErrResourceUnavailable = errors.New("resource unavailable")
