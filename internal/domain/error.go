package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("job not found")
	ErrDuplicateJob    = errors.New("job already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)
