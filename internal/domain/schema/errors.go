package schema

import "errors"

// Sentinel errors. All of them are fatal for the prediction view.
var (
	ErrFeatureNamesUnavailable = errors.New("pipeline did not record its input feature names")
	ErrStageMismatch           = errors.New("preprocessing stages do not match scaler, ordinal, one-hot")
	ErrPartitionMismatch       = errors.New("column partitions do not cover the feature names exactly once")
)
