package artifact

import "errors"

// Sentinel kinds for artifact errors.
var (
	ErrDecode                  = errors.New("decode pipeline artifact")
	ErrInvalidArtifact         = errors.New("invalid pipeline artifact")
	ErrUnknownCategory         = errors.New("unknown category")
	ErrBadValue                = errors.New("bad input value")
	ErrFeatureNamesUnavailable = errors.New("feature names not recorded")
)
