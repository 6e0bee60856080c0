// Package namespace defines the dotted namespace paths used to address
// configuration namespaces, and the naming rules every path component obeys.
//
// A Path is an immutable, ordered list of components. The zero Path is the
// root namespace. Paths are parsed from their dotted form:
//
//	p, err := namespace.Parse("service.database")
//	p.Len()    // 2
//	p.String() // "service.database"
//
// Every component is validated before a Path is returned, so holding a Path
// means holding a valid one.
package namespace

import (
	"strings"
)

// Separator splits a dotted namespace string into components.
const Separator = "."

// Path identifies a namespace. The zero value is the root.
type Path struct {
	parts []string
}

// Root returns the root path (zero components).
func Root() Path {
	return Path{}
}

// Parse splits s on Separator and validates each component.
// The empty string parses to the root.
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	return newPath(s, strings.Split(s, Separator))
}

// MustParse is like Parse but panics on an invalid path.
// Intended for package-level variables and tests.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// New builds a path from already split components.
func New(parts ...string) (Path, error) {
	if len(parts) == 0 {
		return Path{}, nil
	}
	return newPath(strings.Join(parts, Separator), parts)
}

func newPath(full string, parts []string) (Path, error) {
	for _, part := range parts {
		if err := validate(full, part); err != nil {
			return Path{}, err
		}
	}
	cp := make([]string, len(parts))
	copy(cp, parts)
	return Path{parts: cp}, nil
}

// Len returns the number of components.
func (p Path) Len() int {
	return len(p.parts)
}

// IsRoot reports whether p is the root namespace.
func (p Path) IsRoot() bool {
	return len(p.parts) == 0
}

// String returns the dotted form. The root renders as "".
func (p Path) String() string {
	return strings.Join(p.parts, Separator)
}

// Parts returns a copy of the components.
func (p Path) Parts() []string {
	cp := make([]string, len(p.parts))
	copy(cp, p.parts)
	return cp
}

// Last returns the final component, or "" for the root.
func (p Path) Last() string {
	if len(p.parts) == 0 {
		return ""
	}
	return p.parts[len(p.parts)-1]
}

// Prefix returns the path made of the first n components.
// n is clamped to [0, Len()].
func (p Path) Prefix(n int) Path {
	if n <= 0 {
		return Path{}
	}
	if n >= len(p.parts) {
		return p
	}
	return Path{parts: p.parts[:n:n]}
}

// Parent returns the enclosing namespace. The root is its own parent.
func (p Path) Parent() Path {
	return p.Prefix(len(p.parts) - 1)
}

// Child returns p extended by one validated component.
func (p Path) Child(name string) (Path, error) {
	full := name
	if !p.IsRoot() {
		full = p.String() + Separator + name
	}
	if err := validate(full, name); err != nil {
		return Path{}, err
	}
	parts := make([]string, len(p.parts)+1)
	copy(parts, p.parts)
	parts[len(p.parts)] = name
	return Path{parts: parts}, nil
}

// Equal reports whether both paths have the same components in order.
func (p Path) Equal(other Path) bool {
	if len(p.parts) != len(other.parts) {
		return false
	}
	for i := range p.parts {
		if p.parts[i] != other.parts[i] {
			return false
		}
	}
	return true
}

// IsParentOf reports whether other is exactly one component below p.
func (p Path) IsParentOf(other Path) bool {
	return len(other.parts) == len(p.parts)+1 && p.Equal(other.Prefix(len(p.parts)))
}
