// Package registry holds the namespace registry: every materialized
// namespace, its item store and the read-only View handed to callers.
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/dshills/nsconf/internal/config/namespace"
	"github.com/dshills/nsconf/internal/config/notify"
)

// Registry maps namespace paths to their view and item store.
// The root namespace exists from construction; namespaces are never removed.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*entry // keyed by dotted path

	notifier *notify.Notifier
	logger   *slog.Logger
}

type entry struct {
	view  *View
	items *ItemStore
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for namespace creation and merges.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier publishes creation and set events to n.
func WithNotifier(n *notify.Notifier) Option {
	return func(r *Registry) {
		r.notifier = n
	}
}

// New creates a registry containing only the root namespace.
func New(opts ...Option) *Registry {
	r := &Registry{
		namespaces: make(map[string]*entry),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.create(namespace.Root())
	return r
}

// Materialize ensures a namespace exists at p and at every ancestor of p,
// creating missing ones from the root down. It is idempotent and returns
// the view and item store bound to p.
func (r *Registry) Materialize(p namespace.Path) (*View, *ItemStore) {
	r.mu.RLock()
	e, ok := r.namespaces[p.String()]
	r.mu.RUnlock()
	if ok {
		return e.view, e.items
	}

	r.mu.Lock()
	var created []namespace.Path
	for i := 1; i <= p.Len(); i++ {
		prefix := p.Prefix(i)
		if _, exists := r.namespaces[prefix.String()]; exists {
			continue
		}
		r.create(prefix)
		created = append(created, prefix)
	}
	e = r.namespaces[p.String()]
	r.mu.Unlock()

	for _, c := range created {
		r.logger.Debug("namespace created", "namespace", c.String())
		if r.notifier != nil {
			r.notifier.NotifyCreate(c.String())
		}
	}
	return e.view, e.items
}

// create registers an empty namespace. Callers hold r.mu or own r exclusively.
func (r *Registry) create(p namespace.Path) {
	items := &ItemStore{reg: r, path: p, items: make(map[string]any)}
	view := &View{reg: r, path: p, items: items}
	r.namespaces[p.String()] = &entry{view: view, items: items}
}

// Root returns the root view.
func (r *Registry) Root() *View {
	v, _ := r.Lookup(namespace.Root())
	return v
}

// Lookup returns the view for p if that namespace exists.
func (r *Registry) Lookup(p namespace.Path) (*View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.namespaces[p.String()]
	if !ok {
		return nil, false
	}
	return e.view, true
}

// Has reports whether a namespace exists at p.
func (r *Registry) Has(p namespace.Path) bool {
	_, ok := r.Lookup(p)
	return ok
}

// Children returns the namespaces exactly one component below p, keyed by
// their last component.
func (r *Registry) Children(p namespace.Path) map[string]*View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*View)
	for _, e := range r.namespaces {
		if p.IsParentOf(e.view.path) {
			result[e.view.path.Last()] = e.view
		}
	}
	return result
}

// Paths returns every namespace path sorted by dotted form. The root comes first.
func (r *Registry) Paths() []namespace.Path {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]namespace.Path, 0, len(r.namespaces))
	for _, e := range r.namespaces {
		result = append(result, e.view.path)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})

	return result
}

// Len returns the number of namespaces, including the root.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.namespaces)
}
