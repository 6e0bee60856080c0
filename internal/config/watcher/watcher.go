// Package watcher reports changes to files matching glob patterns.
//
// Each pattern's directory is watched with fsnotify; events for names that
// match the pattern are debounced per path and handed to the registered
// handlers. Config uses it to reload file-backed namespaces.
package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by the watcher.
var (
	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrDynamicDir indicates the directory part of a pattern contains wildcards.
	ErrDynamicDir = errors.New("pattern directory must not contain wildcards")
)

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Pattern is the watched pattern the path matched.
	Pattern string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the event was delivered.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called when a matching file changes.
type Handler func(event Event)

// Watcher monitors glob patterns for changes.
type Watcher struct {
	mu sync.RWMutex

	fsw *fsnotify.Watcher

	// Absolute patterns and the directories watched for them
	patterns []string
	dirs     map[string]bool

	handlers []Handler

	debounce time.Duration
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]*pendingEvent

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a path must stay quiet before its event is
// delivered. Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger used for watch errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		dirs:     make(map[string]bool),
		debounce: 100 * time.Millisecond,
		logger:   slog.Default(),
		pending:  make(map[string]*pendingEvent),
		closeCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// WatchPattern starts reporting changes to files matching pattern.
// Only the final path element may contain wildcards.
func (w *Watcher) WatchPattern(pattern string) error {
	abs, err := filepath.Abs(pattern)
	if err != nil {
		return err
	}
	if _, err := filepath.Match(abs, abs); err != nil {
		return fmt.Errorf("watch %q: %w", pattern, err)
	}
	dir := filepath.Dir(abs)
	if hasMeta(dir) {
		return fmt.Errorf("watch %q: %w", pattern, ErrDynamicDir)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if slices.Contains(w.patterns, abs) {
		return nil
	}
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %q: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.patterns = append(w.patterns, abs)
	return nil
}

// OnChange registers a handler for change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Patterns returns the watched patterns in absolute form.
func (w *Watcher) Patterns() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.patterns)
}

// Close stops the watcher. Pending debounced events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()

	w.pendingMu.Lock()
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	op, ok := convertOp(ev.Op)
	if !ok {
		return
	}
	pattern, ok := w.match(ev.Name)
	if !ok {
		return
	}
	event := Event{Path: ev.Name, Pattern: pattern, Op: op}
	if w.debounce == 0 {
		w.emit(event)
		return
	}
	w.queue(event)
}

func (w *Watcher) match(path string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range w.patterns {
		if ok, _ := filepath.Match(p, path); ok {
			return p, true
		}
	}
	return "", false
}

// queue delays delivery of event until its path has been quiet for the
// debounce window, merging operations seen in the meantime.
func (w *Watcher) queue(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if p, ok := w.pending[event.Path]; ok {
		p.event.Op = coalesce(p.event.Op, event.Op)
		p.timer.Reset(w.debounce)
		return
	}

	path := event.Path
	w.pending[path] = &pendingEvent{
		event: event,
		timer: time.AfterFunc(w.debounce, func() { w.flush(path) }),
	}
}

func (w *Watcher) flush(path string) {
	w.pendingMu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	if ok {
		w.emit(p.event)
	}
}

func (w *Watcher) emit(event Event) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return
	}
	handlers := slices.Clone(w.handlers)
	w.mu.RUnlock()

	event.Time = time.Now()
	for _, h := range handlers {
		h(event)
	}
}

// coalesce merges a newer operation into a pending one. Removal wins,
// and a pending create absorbs later writes.
func coalesce(pending, next Operation) Operation {
	switch {
	case next == OpRemove || next == OpRename:
		return next
	case pending == OpCreate && next == OpWrite:
		return OpCreate
	default:
		return next
	}
}

func convertOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	default:
		return 0, false
	}
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
