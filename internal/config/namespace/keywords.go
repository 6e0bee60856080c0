package namespace

import "go/token"

// reserved lists keywords rejected in addition to Go's own. Namespace files
// are shared with loaders that expose namespaces as attributes, where these
// words cannot be used as identifiers.
var reserved = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "class": {}, "def": {}, "del": {}, "elif": {},
	"except": {}, "finally": {}, "from": {}, "global": {}, "in": {}, "is": {},
	"lambda": {}, "nonlocal": {}, "not": {}, "or": {}, "pass": {}, "raise": {},
	"try": {}, "while": {}, "with": {}, "yield": {},
}

// IsReserved reports whether word is a keyword that cannot name a namespace.
func IsReserved(word string) bool {
	if token.IsKeyword(word) {
		return true
	}
	_, ok := reserved[word]
	return ok
}
