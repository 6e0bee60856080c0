package registry

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/dshills/nsconf/internal/config/namespace"
)

// Mapping is the read-only key/value container contract. A View satisfies
// it over its own namespace entries only.
type Mapping interface {
	// Len returns the number of entries.
	Len() int
	// Has reports whether key is present.
	Has(key string) bool
	// Item returns the value for key or an error wrapping ErrKeyNotFound.
	Item(key string) (any, error)
	// Get returns the value for key or def when absent.
	Get(key string, def any) any
	// Keys returns the keys in sorted order.
	Keys() []string
	// All iterates over entries in key order.
	All() iter.Seq2[string, any]
}

// Resolver resolves child namespaces by name.
type Resolver interface {
	Child(name string) (*View, error)
}

var (
	_ Mapping  = (*View)(nil)
	_ Resolver = (*View)(nil)
)

// View is the read-only face of one namespace. There is exactly one View
// per namespace, so views compare by pointer.
type View struct {
	reg   *Registry
	path  namespace.Path
	items *ItemStore
}

// Path returns the namespace path the view is bound to.
func (v *View) Path() namespace.Path {
	return v.path
}

// String renders the view for debugging.
func (v *View) String() string {
	return fmt.Sprintf("<View ns=%s>", v.path)
}

// Len returns the number of entries in this namespace.
func (v *View) Len() int {
	return v.items.Len()
}

// Has reports whether key is an entry of this namespace.
func (v *View) Has(key string) bool {
	_, ok := v.items.Get(key)
	return ok
}

// Item returns the entry for key. Child namespaces are never consulted.
func (v *View) Item(key string) (any, error) {
	val, ok := v.items.Get(key)
	if !ok {
		return nil, &AccessError{Namespace: v.path.String(), Name: key, Err: ErrKeyNotFound}
	}
	return val, nil
}

// Get returns the entry for key, or def when it is absent.
func (v *View) Get(key string, def any) any {
	if val, ok := v.items.Get(key); ok {
		return val
	}
	return def
}

// Keys returns the entry keys in sorted order.
func (v *View) Keys() []string {
	return v.items.Keys()
}

// All iterates over the namespace's own entries in key order.
// Entries of child namespaces are not included.
func (v *View) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		snapshot := v.items.Snapshot()
		for _, key := range slices.Sorted(maps.Keys(snapshot)) {
			if !yield(key, snapshot[key]) {
				return
			}
		}
	}
}

// Child returns the view of the namespace one component below this one.
func (v *View) Child(name string) (*View, error) {
	p, err := v.path.Child(name)
	if err != nil {
		return nil, &AccessError{Namespace: v.path.String(), Name: name, Err: ErrAttributeNotSet}
	}
	child, ok := v.reg.Lookup(p)
	if !ok {
		return nil, &AccessError{Namespace: v.path.String(), Name: name, Err: ErrAttributeNotSet}
	}
	return child, nil
}

// Descend follows Child for each name in turn.
func (v *View) Descend(names ...string) (*View, error) {
	cur := v
	for _, name := range names {
		next, err := cur.Child(name)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Namespaces returns the immediate child namespaces keyed by name.
func (v *View) Namespaces() map[string]*View {
	return v.reg.Children(v.path)
}

// Lookup resolves a dotted path relative to this view. Leading components
// are followed as child namespaces for as long as such namespaces exist; the
// next component names an entry, and any remaining components index into
// nested maps held by that entry.
//
//	root.Lookup("service.database.host")
func (v *View) Lookup(path string) (any, error) {
	parts := strings.Split(path, namespace.Separator)

	cur := v
	i := 0
	for ; i < len(parts)-1; i++ {
		next, err := cur.Child(parts[i])
		if err != nil {
			break
		}
		cur = next
	}

	val, err := cur.Item(parts[i])
	if err != nil {
		return nil, err
	}

	for j := i + 1; j < len(parts); j++ {
		m, ok := val.(map[string]any)
		if !ok {
			return nil, cur.missing(parts[i : j+1])
		}
		if val, ok = m[parts[j]]; !ok {
			return nil, cur.missing(parts[i : j+1])
		}
	}
	return val, nil
}

func (v *View) missing(parts []string) error {
	return &AccessError{
		Namespace: v.path.String(),
		Name:      strings.Join(parts, namespace.Separator),
		Err:       ErrKeyNotFound,
	}
}

// SetItem always fails: views are read-only.
func (v *View) SetItem(key string, _ any) error {
	return &AccessError{Namespace: v.path.String(), Name: key, Err: ErrImmutable}
}

// SetAttr always fails: views are read-only.
func (v *View) SetAttr(name string, _ any) error {
	return &AccessError{Namespace: v.path.String(), Name: name, Err: ErrImmutable}
}
