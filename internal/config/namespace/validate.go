package namespace

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidNamespace is matched by every validation failure.
var ErrInvalidNamespace = errors.New("invalid namespace")

// Error describes a path component that breaks the naming rules.
type Error struct {
	// Path is the full dotted path being validated.
	Path string
	// Component is the offending component.
	Component string
	// Reason describes the broken rule.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("invalid namespace %q: %s, found %q", e.Path, e.Reason, e.Component)
}

// Is implements error matching for Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidNamespace
}

// Reasons reported by validation.
const (
	reasonEmpty      = "namespace words can't be empty"
	reasonCharset    = "namespace words can only contain alphanumeric characters or underscores"
	reasonKeyword    = "namespaces can't contain keywords"
	reasonUnderscore = "namespaces can't contain words starting with an underscore"
	reasonDigit      = "namespaces can't contain words starting with a number"
)

// ValidateComponent checks a single component against the naming rules.
func ValidateComponent(name string) error {
	return validate(name, name)
}

// Validate checks every component of an unsplit path. Nothing is
// returned for the root (no components).
func Validate(parts []string) error {
	full := strings.Join(parts, Separator)
	for _, part := range parts {
		if err := validate(full, part); err != nil {
			return err
		}
	}
	return nil
}

func validate(full, word string) error {
	reason := check(word)
	if reason == "" {
		return nil
	}
	return &Error{Path: full, Component: word, Reason: reason}
}

// check returns the first broken rule, or "" when word is valid.
func check(word string) string {
	if word == "" {
		return reasonEmpty
	}
	for _, r := range word {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return reasonCharset
		}
	}
	if IsReserved(word) {
		return reasonKeyword
	}
	if strings.HasPrefix(word, "_") {
		return reasonUnderscore
	}
	if first, _ := utf8.DecodeRuneInString(word); unicode.IsDigit(first) {
		return reasonDigit
	}
	return ""
}
