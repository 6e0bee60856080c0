// Package notify delivers change events for the namespace store.
//
// Observers subscribe either to every change or to a namespace prefix. A
// prefix subscription on "service" receives changes to "service" itself and
// to every descendant such as "service.database".
package notify

import (
	"slices"
	"strings"
	"sync"
)

// ChangeType classifies a Change.
type ChangeType int

const (
	ChangeSet    ChangeType = iota // an item was written
	ChangeCreate                   // a namespace came into existence
	ChangeReload                   // a watched file was merged again
)

func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeCreate:
		return "create"
	case ChangeReload:
		return "reload"
	}
	return "unknown"
}

// Change describes one mutation of the store. Key, OldValue and NewValue
// are only filled for ChangeSet. Source is a file path, "memory" or "set".
type Change struct {
	Namespace string
	Key       string
	Type      ChangeType
	OldValue  any
	NewValue  any
	Source    string
}

// Path joins Namespace and Key into the dotted path of the item.
func (c Change) Path() string {
	if c.Key == "" {
		return c.Namespace
	}
	if c.Namespace == "" {
		return c.Key
	}
	return c.Namespace + "." + c.Key
}

// Observer receives changes. It runs without any notifier or registry
// lock held.
type Observer func(change Change)

type subscriber struct {
	id     uint64
	prefix string
	global bool
	fn     Observer
}

// wants reports whether s should see c. Path subscribers match on the
// namespace subtree and, for item writes, on the exact item path.
func (s subscriber) wants(c Change) bool {
	return s.global || covers(s.prefix, c.Namespace) || s.prefix == c.Path()
}

// Subscription is the handle returned by Subscribe and SubscribePath.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe stops delivery to the observer. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.remove(s.id)
	}
}

// Notifier fans changes out to subscribers in subscription order.
type Notifier struct {
	mu     sync.RWMutex
	subs   []subscriber
	lastID uint64
	closed bool

	async bool
	queue chan Change
	stop  chan struct{}
	wg    sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync queues changes in a buffer of bufferSize and delivers them from
// a single goroutine. Sizes below one keep delivery synchronous.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize < 1 {
			return
		}
		n.async = true
		n.queue = make(chan Change, bufferSize)
	}
}

func New(opts ...Option) *Notifier {
	n := &Notifier{stop: make(chan struct{})}
	for _, opt := range opts {
		opt(n)
	}
	if n.async {
		n.wg.Add(1)
		go n.run()
	}
	return n
}

// Subscribe registers fn for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	return n.add(subscriber{global: true, fn: fn})
}

// SubscribePath registers fn for changes whose namespace is prefix or lies
// below it. Item writes also match on their full path, so "service.port"
// sees sets of key "port" in namespace "service".
func (n *Notifier) SubscribePath(prefix string, fn Observer) *Subscription {
	return n.add(subscriber{prefix: prefix, fn: fn})
}

func (n *Notifier) add(s subscriber) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastID++
	s.id = n.lastID
	n.subs = append(n.subs, s)
	return &Subscription{id: s.id, notifier: n}
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = slices.DeleteFunc(n.subs, func(s subscriber) bool { return s.id == id })
}

// Notify hands change to the matching subscribers. After Close it does
// nothing.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}

	if !n.async {
		n.dispatch(change)
		return
	}
	select {
	case n.queue <- change:
	case <-n.stop:
	}
}

func (n *Notifier) NotifySet(namespace, key string, oldValue, newValue any, source string) {
	n.Notify(Change{Namespace: namespace, Key: key, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

func (n *Notifier) NotifyCreate(namespace string) {
	n.Notify(Change{Namespace: namespace, Type: ChangeCreate})
}

func (n *Notifier) NotifyReload(namespace, source string) {
	n.Notify(Change{Namespace: namespace, Type: ChangeReload, Source: source})
}

// Close stops accepting changes and, in async mode, waits until the queue
// is drained. Repeated calls return immediately.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.stop)
	n.wg.Wait()
}

func (n *Notifier) dispatch(change Change) {
	n.mu.RLock()
	var targets []Observer
	for _, s := range n.subs {
		if s.wants(change) {
			targets = append(targets, s.fn)
		}
	}
	n.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case change := <-n.queue:
			n.dispatch(change)
		case <-n.stop:
			for len(n.queue) > 0 {
				n.dispatch(<-n.queue)
			}
			return
		}
	}
}

// covers reports whether namespace is prefix or a descendant of it. The
// root prefix covers everything.
func covers(prefix, namespace string) bool {
	if prefix == "" || namespace == prefix {
		return true
	}
	return strings.HasPrefix(namespace, prefix+".")
}

// Batch holds changes back until Commit.
type Batch struct {
	n       *Notifier
	mu      sync.Mutex
	pending []Change
}

func (n *Notifier) NewBatch() *Batch {
	return &Batch{n: n}
}

func (b *Batch) Add(change Change) {
	b.mu.Lock()
	b.pending = append(b.pending, change)
	b.mu.Unlock()
}

func (b *Batch) Set(namespace, key string, oldValue, newValue any, source string) {
	b.Add(Change{Namespace: namespace, Key: key, Type: ChangeSet, OldValue: oldValue, NewValue: newValue, Source: source})
}

// Commit sends the pending changes in the order they were added and
// empties the batch.
func (b *Batch) Commit() {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, c := range pending {
		b.n.Notify(c)
	}
}

// Discard drops the pending changes.
func (b *Batch) Discard() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
