package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/nsconf/internal/config/loader"
	"github.com/dshills/nsconf/internal/config/namespace"
	"github.com/dshills/nsconf/internal/config/notify"
	"github.com/dshills/nsconf/internal/config/registry"
)

func newConfig(t *testing.T, opts ...Option) *Config {
	t.Helper()
	c := New(opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConfig_LoadReadBack(t *testing.T) {
	c := newConfig(t)
	data := map[string]any{"host": "db1", "port": 5432}

	require.NoError(t, c.Load(data, "service.database"))

	db, err := c.Root().Descend("service", "database")
	require.NoError(t, err)
	for k, want := range data {
		got, err := db.Item(k)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, len(data), db.Len())
}

func TestConfig_LoadIntoRoot(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"debug": true}, ""))

	v, err := c.Root().Item("debug")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestConfig_LoadLastWriteWins(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"a": 1}, "x"))
	require.NoError(t, c.Load(map[string]any{"a": 2, "b": 3}, "x"))

	x, err := c.Namespace("x")
	require.NoError(t, err)
	assert.Equal(t, 2, x.Get("a", nil))
	assert.Equal(t, 3, x.Get("b", nil))
}

func TestConfig_DeepPathCreatesAncestors(t *testing.T) {
	c := newConfig(t)
	_, err := c.View("a.b.c")
	require.NoError(t, err)

	for _, ns := range []string{"a", "a.b", "a.b.c"} {
		v, err := c.Namespace(ns)
		require.NoError(t, err, ns)
		assert.Zero(t, v.Len(), ns)
	}
	assert.Equal(t, []string{"", "a", "a.b", "a.b.c"}, c.Namespaces())
}

func TestConfig_MissingKeyAndDefault(t *testing.T) {
	c := newConfig(t)
	v, err := c.View("svc")
	require.NoError(t, err)

	_, err = v.Item("nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, "fallback", v.Get("nope", "fallback"))
}

func TestConfig_MissingChildIsAttributeNotSet(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"k": 1}, "svc"))

	_, err := c.Root().Descend("svc", "missing")
	require.ErrorIs(t, err, ErrAttributeNotSet)
	assert.False(t, errors.Is(err, ErrKeyNotFound))

	_, err = c.Namespace("svc.missing")
	require.ErrorIs(t, err, ErrAttributeNotSet)
	assert.False(t, c.reg.Has(namespace.MustParse("svc.missing")))
}

func TestConfig_InvalidNamespace(t *testing.T) {
	tests := []struct {
		ns      string
		wantErr bool
	}{
		{"1abc", true},
		{"_abc", true},
		{"class", true},
		{"func", true},
		{"a-b", true},
		{"ok.1abc", true},
		{"a..b", true},
		{"abc_123", false},
	}

	for _, tt := range tests {
		t.Run(tt.ns, func(t *testing.T) {
			c := newConfig(t)
			err := c.Load(map[string]any{"k": 1}, tt.ns)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidNamespace)
				assert.Equal(t, []string{""}, c.Namespaces(), "nothing materialized")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfig_InvalidNamespaceEveryEntryPoint(t *testing.T) {
	c := newConfig(t)

	require.ErrorIs(t, c.Set("k", 1, "a-b"), ErrInvalidNamespace)
	require.ErrorIs(t, c.LoadFiles("*.json", "class"), ErrInvalidNamespace)
	_, err := c.View("_x")
	require.ErrorIs(t, err, ErrInvalidNamespace)
	_, err = c.Namespace("9x")
	require.ErrorIs(t, err, ErrInvalidNamespace)
	require.ErrorIs(t, c.Watch(context.Background(), "*.json", "x.if"), ErrInvalidNamespace)

	assert.Equal(t, []string{""}, c.Namespaces())
}

func TestConfig_RootNamespacesImmediateChildren(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"k": 1}, "a"))
	require.NoError(t, c.Load(map[string]any{"k": 2}, "a.b"))
	require.NoError(t, c.Load(map[string]any{"k": 3}, "c"))

	children := c.Root().Namespaces()
	require.Len(t, children, 2)
	a, err := c.Namespace("a")
	require.NoError(t, err)
	assert.Same(t, a, children["a"])
	assert.Contains(t, children, "c")
	assert.NotContains(t, children, "b")
}

func TestConfig_ViewWritesFail(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"k": 1}, "svc"))
	v, err := c.Namespace("svc")
	require.NoError(t, err)

	require.ErrorIs(t, v.SetItem("k", 2), ErrImmutable)
	require.ErrorIs(t, v.SetAttr("child", 2), ErrImmutable)
	assert.Equal(t, 1, v.Get("k", nil))
	assert.False(t, v.Has("child"))
	_, err = v.Child("child")
	require.ErrorIs(t, err, ErrAttributeNotSet)
}

func TestConfig_IterationExcludesChildren(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"x": 1}, "a.b"))

	a, err := c.Namespace("a")
	require.NoError(t, err)

	n := 0
	for range a.All() {
		n++
	}
	assert.Zero(t, n)
	assert.Empty(t, a.Keys())
}

func TestConfig_Set(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.Load(map[string]any{"a": 1, "b": 2}, "x"))
	require.NoError(t, c.Set("a", 10, "x"))
	require.NoError(t, c.Set("level", "debug", ""))

	x, err := c.Namespace("x")
	require.NoError(t, err)
	assert.Equal(t, 10, x.Get("a", nil))
	assert.Equal(t, 2, x.Get("b", nil))
	assert.Equal(t, "debug", c.Root().Get("level", nil))
}

func TestConfig_LoadIsolatedFromCallerMaps(t *testing.T) {
	c := newConfig(t)
	nested := map[string]any{"host": "a"}
	require.NoError(t, c.Load(map[string]any{"db": nested}, "svc"))
	require.NoError(t, c.Set("pool", nested, "svc"))

	nested["host"] = "changed"

	host, err := c.Root().Lookup("svc.db.host")
	require.NoError(t, err)
	assert.Equal(t, "a", host)

	host, err = c.Root().Lookup("svc.pool.host")
	require.NoError(t, err)
	assert.Equal(t, "a", host)
}

func TestConfig_MustLoadPanics(t *testing.T) {
	c := newConfig(t)
	assert.NotPanics(t, func() { c.MustLoad(map[string]any{"a": 1}, "ok") })
	assert.Panics(t, func() { c.MustLoad(map[string]any{"a": 1}, "not-ok") })
}

func TestConfig_LoadFilesFlat(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/a.json", `{"shared": "a", "only_a": 1}`)
	fsys.AddFile("conf/b.yaml", "shared: b\nonly_b: 2\n")
	fsys.AddFile("conf/c.toml", "only_c = 3\n")

	c := newConfig(t, WithFS(fsys))
	require.NoError(t, c.LoadFiles("conf/*", "service"))

	svc, err := c.Namespace("service")
	require.NoError(t, err)
	assert.Equal(t, "b", svc.Get("shared", nil), "files merge in lexical order")
	assert.Equal(t, float64(1), svc.Get("only_a", nil))
	assert.Equal(t, 2, svc.Get("only_b", nil))
	assert.Equal(t, int64(3), svc.Get("only_c", nil))
	assert.Empty(t, svc.Namespaces())
}

func TestConfig_LoadFilesPerFileNamespaces(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/database.json", `{"host": "db1"}`)
	fsys.AddFile("conf/cache.json", `{"host": "redis"}`)

	c := newConfig(t, WithFS(fsys))
	require.NoError(t, c.LoadFiles("conf/*.json", "service", WithFileNamespaces()))

	host, err := c.Root().Lookup("service.database.host")
	require.NoError(t, err)
	assert.Equal(t, "db1", host)

	host, err = c.Root().Lookup("service.cache.host")
	require.NoError(t, err)
	assert.Equal(t, "redis", host)

	svc, err := c.Namespace("service")
	require.NoError(t, err)
	assert.Zero(t, svc.Len())
}

func TestConfig_LoadFilesInvalidStem(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/my-db.json", `{"host": "db1"}`)

	c := newConfig(t, WithFS(fsys))
	err := c.LoadFiles("conf/*.json", "service", WithFileNamespaces())
	require.ErrorIs(t, err, ErrInvalidNamespace)
	assert.Contains(t, err.Error(), "conf/my-db.json")
}

func TestConfig_LoadFilesDottedStemNests(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/db.prod.json", `{"host": "prod"}`)
	fsys.AddFile("conf/db.json", `{"host": "dev"}`)

	c := newConfig(t, WithFS(fsys))
	require.NoError(t, c.LoadFiles("conf/*.json", "svc", WithFileNamespaces()))

	host, err := c.Root().Lookup("svc.db.prod.host")
	require.NoError(t, err)
	assert.Equal(t, "prod", host)

	host, err = c.Root().Lookup("svc.db.host")
	require.NoError(t, err)
	assert.Equal(t, "dev", host)

	assert.Equal(t, []string{"", "svc", "svc.db", "svc.db.prod"}, c.Namespaces())

	fsys.AddFile("bad/db.1x.json", `{}`)
	err = c.LoadFiles("bad/*.json", "svc", WithFileNamespaces())
	require.ErrorIs(t, err, ErrInvalidNamespace)
	assert.Len(t, c.Namespaces(), 4)
}

func TestConfig_LoadFilesNoMatch(t *testing.T) {
	c := newConfig(t, WithFS(loader.NewMemFS()))
	require.NoError(t, c.LoadFiles("conf/*.json", "service"))

	_, err := c.Namespace("service")
	require.ErrorIs(t, err, ErrAttributeNotSet)
}

func TestConfig_LoadFilesFailureNamesFile(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/a.json", `{"good": true}`)
	fsys.AddFile("conf/b.json", `{"broken": `)
	fsys.AddFile("conf/c.json", `{"never": true}`)

	c := newConfig(t, WithFS(fsys))
	err := c.LoadFiles("conf/*.json", "svc")
	require.ErrorIs(t, err, ErrLoadFailure)

	var le *loader.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "conf/b.json", le.Path)

	svc, err := c.Namespace("svc")
	require.NoError(t, err)
	assert.True(t, svc.Has("good"), "earlier files stay merged")
	assert.False(t, svc.Has("never"))
}

func TestConfig_LoadFilesUnsupportedFormat(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/a.ini", "a=1")

	c := newConfig(t, WithFS(fsys))
	err := c.LoadFiles("conf/*", "svc")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.ErrorIs(t, err, ErrLoadFailure)
}

func TestConfig_WithDecoder(t *testing.T) {
	fsys := loader.NewMemFS()
	fsys.AddFile("conf/a.kv", "ignored")

	dec := loader.DecoderFunc(func([]byte) (map[string]any, error) {
		return map[string]any{"custom": true}, nil
	})
	c := newConfig(t, WithFS(fsys), WithDecoder(".kv", dec))
	require.NoError(t, c.LoadFiles("conf/*.kv", "svc"))

	v, err := c.Root().Lookup("svc.custom")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestConfig_Subscribe(t *testing.T) {
	c := newConfig(t)

	var mu sync.Mutex
	var all, scoped []notify.Change
	c.Subscribe(func(ch notify.Change) {
		mu.Lock()
		all = append(all, ch)
		mu.Unlock()
	})
	c.SubscribePath("svc.db", func(ch notify.Change) {
		mu.Lock()
		scoped = append(scoped, ch)
		mu.Unlock()
	})

	require.NoError(t, c.Load(map[string]any{"host": "h"}, "svc.db"))
	require.NoError(t, c.Set("port", 1, "other"))

	mu.Lock()
	defer mu.Unlock()

	var creates []string
	for _, ch := range all {
		if ch.Type == notify.ChangeCreate {
			creates = append(creates, ch.Namespace)
		}
	}
	assert.Equal(t, []string{"svc", "svc.db", "other"}, creates)

	require.NotEmpty(t, scoped)
	for _, ch := range scoped {
		assert.Contains(t, []string{"svc.db"}, ch.Namespace)
	}
	last := scoped[len(scoped)-1]
	assert.Equal(t, notify.ChangeSet, last.Type)
	assert.Equal(t, "svc.db.host", last.Path())
	assert.Equal(t, SourceMemory, last.Source)
}

func TestConfig_Watch(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"level": "info"}`), 0o644))

	c := newConfig(t, WithWatchDebounce(20*time.Millisecond))

	reloaded := make(chan notify.Change, 8)
	c.Subscribe(func(ch notify.Change) {
		if ch.Type == notify.ChangeReload {
			reloaded <- ch
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, filepath.Join(dir, "*.json"), "app"))

	app, err := c.Namespace("app")
	require.NoError(t, err)
	assert.Equal(t, "info", app.Get("level", nil))

	require.NoError(t, os.WriteFile(file, []byte(`{"level": "debug"}`), 0o644))

	select {
	case ch := <-reloaded:
		assert.Equal(t, "app", ch.Namespace)
		assert.Equal(t, file, ch.Source)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload notification")
	}
	assert.Equal(t, "debug", app.Get("level", nil))
}

func TestConfig_WatchPerFileNamespaces(t *testing.T) {
	dir := t.TempDir()
	c := newConfig(t, WithWatchDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, filepath.Join(dir, "*.yaml"), "svc", WithFileNamespaces()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.yaml"), []byte("ttl: 30\n"), 0o644))

	require.Eventually(t, func() bool {
		v, err := c.Root().Lookup("svc.cache.ttl")
		return err == nil && v == 30
	}, 3*time.Second, 10*time.Millisecond)
}

func TestConfig_WatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	c := newConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Watch(ctx, filepath.Join(dir, "*.json"), "app"))
	cancel()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.watchers) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestConfig_WatchAfterClose(t *testing.T) {
	c := New()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Watch(context.Background(), filepath.Join(t.TempDir(), "*.json"), "app")
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	require.Same(t, Default(), Default())
	require.Same(t, Default().Root(), Root())

	require.NoError(t, Load(map[string]any{"k": "v"}, "pkgtest.defaults"))
	require.NoError(t, Set("extra", 1, "pkgtest.defaults"))

	v, err := Namespace("pkgtest.defaults")
	require.NoError(t, err)
	assert.Equal(t, "v", v.Get("k", nil))
	assert.Equal(t, 1, v.Get("extra", nil))

	require.NoError(t, LoadFiles(filepath.Join(t.TempDir(), "*.json"), "pkgtest"))
}

func TestErrorsMatchSubpackages(t *testing.T) {
	assert.ErrorIs(t, &registry.AccessError{Err: registry.ErrKeyNotFound}, ErrKeyNotFound)
	assert.ErrorIs(t, &loader.LoadError{Path: "x", Err: errors.New("boom")}, ErrLoadFailure)
}
