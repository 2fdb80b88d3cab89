package site

import "errors"

// Error constants.
var (
	ErrRender  = errors.New("page render failed")
	ErrBadPost = errors.New("malformed form post")
)
