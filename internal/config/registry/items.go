package registry

import (
	"sort"

	"github.com/dshills/nsconf/internal/config/namespace"
)

// ItemStore holds the entries of exactly one namespace. It is created by
// the registry and shares the registry's lock.
type ItemStore struct {
	reg   *Registry
	path  namespace.Path
	items map[string]any
}

// Path returns the namespace this store belongs to.
func (s *ItemStore) Path() namespace.Path {
	return s.path
}

// Merge overlays data onto the store: every key in data replaces any
// previous value, other keys are left untouched. Nested maps and slices
// are copied, so later changes to data do not reach the store. source is
// reported to change observers.
func (s *ItemStore) Merge(data map[string]any, source string) {
	if len(data) == 0 {
		return
	}

	type change struct {
		key            string
		oldVal, newVal any
	}
	changes := make([]change, 0, len(data))
	for key, value := range data {
		changes = append(changes, change{key: key, newVal: cloneValue(value)})
	}

	s.reg.mu.Lock()
	for i, c := range changes {
		changes[i].oldVal = s.items[c.key]
		s.items[c.key] = c.newVal
	}
	s.reg.mu.Unlock()

	s.reg.logger.Debug("namespace merged", "namespace", s.path.String(), "keys", len(data), "source", source)

	if s.reg.notifier == nil {
		return
	}
	batch := s.reg.notifier.NewBatch()
	ns := s.path.String()
	for _, c := range changes {
		batch.Set(ns, c.key, c.oldVal, c.newVal, source)
	}
	batch.Commit()
}

// Set stores a single key, overwriting any previous value. Like Merge it
// stores a copy of nested maps and slices.
func (s *ItemStore) Set(key string, value any, source string) {
	value = cloneValue(value)

	s.reg.mu.Lock()
	old := s.items[key]
	s.items[key] = value
	s.reg.mu.Unlock()

	if s.reg.notifier != nil {
		s.reg.notifier.NotifySet(s.path.String(), key, old, value, source)
	}
}

// Get returns the value stored under key.
func (s *ItemStore) Get(key string) (any, bool) {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Len returns the number of entries.
func (s *ItemStore) Len() int {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	return len(s.items)
}

// Keys returns the entry keys in sorted order.
func (s *ItemStore) Keys() []string {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the entries.
func (s *ItemStore) Snapshot() map[string]any {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()

	out := make(map[string]any, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}
