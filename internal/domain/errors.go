package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate natural key")
	ErrRateMissing  = errors.New("rate missing")
	ErrRateTooLow   = errors.New("rate too low")
	ErrTokenMissing = errors.New("property token missing")
	ErrImageArity   = errors.New("image count does not match image type count")
	ErrInvalidEnum  = errors.New("invalid enum value")
	ErrInvalidInput = errors.New("invalid input")
)
