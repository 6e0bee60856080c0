package registry

import (
	"errors"
	"fmt"
)

// Errors returned by views.
var (
	// ErrKeyNotFound indicates a strict item lookup missed.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAttributeNotSet indicates a child namespace does not exist.
	ErrAttributeNotSet = errors.New("attribute value not set")

	// ErrImmutable indicates a write was attempted through a view.
	ErrImmutable = errors.New("item assignment not supported")
)

// AccessError records a failed view access.
type AccessError struct {
	// Namespace is the dotted path of the view ("" for root).
	Namespace string
	// Name is the item key or child name that was accessed.
	Name string
	// Err is one of ErrKeyNotFound, ErrAttributeNotSet or ErrImmutable.
	Err error
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	return fmt.Sprintf("%v: %q (ns=%q)", e.Err, e.Name, e.Namespace)
}

// Unwrap returns the underlying sentinel.
func (e *AccessError) Unwrap() error {
	return e.Err
}
