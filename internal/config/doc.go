// Package config provides a hierarchical, namespaced configuration store.
//
// Callers register key/value maps under dotted namespace paths such as
// "service.database" and read them back through read-only views, either by
// key or by walking child namespaces.
//
// # Namespaces
//
// A namespace path is a sequence of identifier-like components separated
// by dots. The empty string names the root. Components may contain only
// letters, digits and underscores, must not start with a digit or an
// underscore, and must not be a reserved word. Namespaces are created on
// demand together with all their ancestors and are never removed.
//
// # Loading
//
// Loads into one namespace accumulate: each key replaces any previous
// value for that key and other keys are kept.
//
//	cfg := config.New()
//	_ = cfg.Load(map[string]any{"host": "db1", "port": 5432}, "service.database")
//	_ = cfg.LoadFiles("conf/*.json", "service")
//
// LoadFiles merges every matched file into the target namespace. With
// WithFileNamespaces each file goes to a child namespace named after its
// stem instead, with dots in the stem nesting further. JSON (with
// comments), TOML and YAML files are supported.
//
// # Reading
//
// Views never allow writes. Item and Get read the view's own entries;
// Child and Descend walk namespaces; Lookup resolves a dotted path across
// both.
//
//	db, err := cfg.Root().Descend("service", "database")
//	host := db.Get("host", "localhost")
//	port, err := cfg.Root().Lookup("service.database.port")
//
// # Process-wide instance
//
// Default returns a Config created at package initialization. The
// package-level Load, LoadFiles, Set, Namespace and Root functions operate
// on it.
//
// # Sub-packages
//
//   - namespace: path parsing and component validation
//   - registry: namespace registry, item stores and views
//   - loader: file decoding and globbing
//   - notify: change notification and observer pattern
//   - watcher: file watching for live reload
//   - export: JSON rendering and path queries over a namespace subtree
//
// # Thread Safety
//
// All operations are safe for concurrent use. Change notifications are
// delivered after the registry lock is released, so observers may read
// the configuration.
package config
