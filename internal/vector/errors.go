package vector

import "errors"

var (
	// ErrNotFound is returned when a persisted vector file does not exist.
	ErrNotFound = errors.New("vector file not found")
	// ErrFormat is returned for a malformed matrix or one that does not match the attached items.
	ErrFormat = errors.New("malformed vector file")
	// ErrEmptyIndex is returned when building over zero vectors.
	ErrEmptyIndex = errors.New("cannot build index over an empty search space")
	// ErrInvalidArgument is returned for k <= 0 or a query of the wrong dimensionality.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotBuilt is returned when searching an index that has not been built.
	ErrNotBuilt = errors.New("index not built")
	// ErrIO is returned when writing a vector file fails.
	ErrIO = errors.New("vector file write failed")
	// ErrInvalidState is returned when items cannot form a consistent search space.
	ErrInvalidState = errors.New("invalid search space state")
)
