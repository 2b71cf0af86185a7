package storage

import "errors"

var (
	// ErrPathEscapesBase is returned for paths resolving outside the storage root
	ErrPathEscapesBase = errors.New("path escapes base directory")

	// ErrNotFound is returned when a requested artifact does not exist
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned when a file name sanitizes to nothing
	ErrInvalidName = errors.New("invalid file name")
)
