package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailure is matched by every error that names a failing file.
	ErrLoadFailure = errors.New("load failure")

	// ErrUnsupportedFormat indicates no decoder is registered for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrNotMapping indicates a document whose top level is not a key/value map.
	ErrNotMapping = errors.New("document is not a mapping")
)

// LoadError reports a file that could not be read or decoded.
type LoadError struct {
	// Path is the file that failed.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is implements error matching for LoadError.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailure
}
