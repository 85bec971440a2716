package infrastructure

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyResponse     = errors.New("model returned empty response")
	ErrInvalidPath       = errors.New("invalid path")
)
