package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dshills/nsconf/internal/config/loader"
	"github.com/dshills/nsconf/internal/config/namespace"
	"github.com/dshills/nsconf/internal/config/notify"
	"github.com/dshills/nsconf/internal/config/registry"
	"github.com/dshills/nsconf/internal/config/watcher"
)

// Source labels reported to change observers.
const (
	SourceMemory = "memory"
	SourceSet    = "set"
)

// Config is a hierarchical configuration store. It owns a namespace
// registry, the file loader used to fill it and the notifier that reports
// changes. The zero value is not usable; construct with New.
type Config struct {
	reg      *registry.Registry
	loader   *loader.Loader
	notifier *notify.Notifier
	logger   *slog.Logger

	loaderOpts []loader.Option
	notifyOpts []notify.Option
	debounce   time.Duration

	mu       sync.Mutex
	watchers []*watcher.Watcher
	closed   bool
	done     chan struct{}
}

// Option configures a Config instance.
type Option func(*Config)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFS sets the file system LoadFiles reads from.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.loaderOpts = append(c.loaderOpts, loader.WithFS(fsys))
	}
}

// WithDecoder registers a decoder for a file extension.
func WithDecoder(ext string, d loader.Decoder) Option {
	return func(c *Config) {
		c.loaderOpts = append(c.loaderOpts, loader.WithDecoder(ext, d))
	}
}

// WithAsyncNotify delivers change notifications on a background goroutine.
func WithAsyncNotify(bufferSize int) Option {
	return func(c *Config) {
		c.notifyOpts = append(c.notifyOpts, notify.WithAsync(bufferSize))
	}
}

// WithWatchDebounce sets the quiet period Watch waits for before reloading
// a changed file.
func WithWatchDebounce(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// New creates an empty configuration holding only the root namespace.
func New(opts ...Option) *Config {
	c := &Config{
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.notifier = notify.New(c.notifyOpts...)
	c.loader = loader.New(c.loaderOpts...)
	c.reg = registry.New(
		registry.WithLogger(c.logger),
		registry.WithNotifier(c.notifier),
	)
	return c
}

// FileOption adjusts how LoadFiles and Watch map files to namespaces.
type FileOption func(*fileOptions)

type fileOptions struct {
	perFile bool
}

// WithFileNamespaces loads each file into its own child namespace named
// after the file stem: "conf/db.json" into "service" lands in
// "service.db". Dots in the stem nest further, so "conf/db.prod.json"
// lands in "service.db.prod". Without it every file merges into the
// target namespace.
func WithFileNamespaces() FileOption {
	return func(o *fileOptions) {
		o.perFile = true
	}
}

func buildFileOptions(opts []FileOption) fileOptions {
	var o fileOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load merges data into the namespace ns, creating it and its ancestors
// if needed. Keys already present are overwritten; other keys are kept.
func (c *Config) Load(data map[string]any, ns string) error {
	p, err := namespace.Parse(ns)
	if err != nil {
		return err
	}
	_, items := c.reg.Materialize(p)
	items.Merge(data, SourceMemory)
	return nil
}

// MustLoad is like Load but panics on an invalid namespace. It is meant
// for package init code registering static defaults.
func (c *Config) MustLoad(data map[string]any, ns string) {
	if err := c.Load(data, ns); err != nil {
		panic(err)
	}
}

// LoadFiles expands pattern and merges every matching file into ns, in
// lexical path order. A pattern matching nothing is not an error and
// creates nothing. The first file that cannot be read or decoded stops
// the load with a *loader.LoadError; files merged before it stay merged.
func (c *Config) LoadFiles(pattern, ns string, opts ...FileOption) error {
	p, err := namespace.Parse(ns)
	if err != nil {
		return err
	}
	o := buildFileOptions(opts)

	paths, err := c.loader.Glob(pattern)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if _, err := c.loadFile(path, p, o); err != nil {
			return err
		}
	}
	return nil
}

// loadFile decodes one file and merges it into base, or into the file's
// stem namespace below base when per-file namespaces are on.
func (c *Config) loadFile(path string, base namespace.Path, o fileOptions) (namespace.Path, error) {
	target, err := fileTarget(path, base, o)
	if err != nil {
		return target, err
	}

	data, err := c.loader.LoadFile(path)
	if err != nil {
		return target, err
	}

	_, items := c.reg.Materialize(target)
	items.Merge(data, path)
	c.logger.Debug("config file loaded", "file", path, "namespace", target.String(), "keys", len(data))
	return target, nil
}

// fileTarget returns the namespace a file merges into.
func fileTarget(path string, base namespace.Path, o fileOptions) (namespace.Path, error) {
	if !o.perFile {
		return base, nil
	}
	target := base
	for _, name := range strings.Split(loader.Stem(path), namespace.Separator) {
		child, err := target.Child(name)
		if err != nil {
			return base, fmt.Errorf("loading %s: %w", path, err)
		}
		target = child
	}
	return target, nil
}

// Set stores a single value under key in ns, creating the namespace if
// needed.
func (c *Config) Set(key string, value any, ns string) error {
	p, err := namespace.Parse(ns)
	if err != nil {
		return err
	}
	_, items := c.reg.Materialize(p)
	items.Set(key, value, SourceSet)
	return nil
}

// View returns the view of ns, creating the namespace if needed.
func (c *Config) View(ns string) (*registry.View, error) {
	p, err := namespace.Parse(ns)
	if err != nil {
		return nil, err
	}
	v, _ := c.reg.Materialize(p)
	return v, nil
}

// Namespace returns the view of an existing namespace. Unlike View it
// never creates anything and fails with ErrAttributeNotSet when ns has
// not been materialized.
func (c *Config) Namespace(ns string) (*registry.View, error) {
	p, err := namespace.Parse(ns)
	if err != nil {
		return nil, err
	}
	v, ok := c.reg.Lookup(p)
	if !ok {
		return nil, &registry.AccessError{Namespace: p.Parent().String(), Name: p.Last(), Err: ErrAttributeNotSet}
	}
	return v, nil
}

// Root returns the view of the root namespace.
func (c *Config) Root() *registry.View {
	return c.reg.Root()
}

// Namespaces returns the dotted paths of every namespace, root first.
func (c *Config) Namespaces() []string {
	paths := c.reg.Paths()
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

// Subscribe registers an observer for every change.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below a dotted
// namespace or item path.
func (c *Config) SubscribePath(prefix string, observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(prefix, observer)
}

// Watch loads pattern into ns like LoadFiles and then keeps reloading
// files matching pattern whenever they are written, until ctx is done or
// the Config is closed. Reloads merge over existing entries; keys removed
// from a file stay in the namespace. Reload failures are logged.
func (c *Config) Watch(ctx context.Context, pattern, ns string, opts ...FileOption) error {
	p, err := namespace.Parse(ns)
	if err != nil {
		return err
	}
	o := buildFileOptions(opts)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return watcher.ErrWatcherClosed
	}

	if err := c.LoadFiles(pattern, ns, opts...); err != nil {
		return err
	}

	w, err := watcher.New(watcher.WithDebounce(c.debounce), watcher.WithLogger(c.logger))
	if err != nil {
		return err
	}
	if err := w.WatchPattern(pattern); err != nil {
		_ = w.Close()
		return err
	}
	w.OnChange(func(ev watcher.Event) {
		c.reload(ev, p, o)
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = w.Close()
		return watcher.ErrWatcherClosed
	}
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			c.stopWatcher(w)
		case <-c.done:
		}
	}()
	return nil
}

func (c *Config) reload(ev watcher.Event, base namespace.Path, o fileOptions) {
	if ev.Op != watcher.OpWrite && ev.Op != watcher.OpCreate {
		c.logger.Debug("config file gone", "file", ev.Path, "op", ev.Op.String())
		return
	}

	target, err := c.loadFile(ev.Path, base, o)
	if err != nil {
		c.logger.Error("config reload failed", "file", ev.Path, "error", err)
		return
	}
	c.notifier.NotifyReload(target.String(), ev.Path)
}

func (c *Config) stopWatcher(w *watcher.Watcher) {
	c.mu.Lock()
	for i, cur := range c.watchers {
		if cur == w {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if err := w.Close(); err != nil {
		c.logger.Error("closing config watcher", "error", err)
	}
}

// Close stops all watchers and the notifier. Views stay readable.
func (c *Config) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	watchers := c.watchers
	c.watchers = nil
	c.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		errs = append(errs, w.Close())
	}
	c.notifier.Close()
	return errors.Join(errs...)
}
