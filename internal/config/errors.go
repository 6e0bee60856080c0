package config

import (
	"github.com/dshills/nsconf/internal/config/loader"
	"github.com/dshills/nsconf/internal/config/namespace"
	"github.com/dshills/nsconf/internal/config/registry"
)

// Errors returned by configuration operations. They are the sentinels of
// the sub-packages, re-exported so callers only import config.
var (
	// ErrInvalidNamespace indicates a namespace component failed validation.
	ErrInvalidNamespace = namespace.ErrInvalidNamespace

	// ErrKeyNotFound indicates a strict item lookup missed.
	ErrKeyNotFound = registry.ErrKeyNotFound

	// ErrAttributeNotSet indicates a child namespace does not exist.
	ErrAttributeNotSet = registry.ErrAttributeNotSet

	// ErrImmutable indicates a write was attempted through a view.
	ErrImmutable = registry.ErrImmutable

	// ErrLoadFailure indicates a file could not be read or decoded.
	ErrLoadFailure = loader.ErrLoadFailure

	// ErrUnsupportedFormat indicates no decoder handles a file's extension.
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat
)
