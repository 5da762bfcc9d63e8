package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotStarted       = errors.New("service not started")
)
