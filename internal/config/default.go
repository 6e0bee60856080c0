package config

import "github.com/dshills/nsconf/internal/config/registry"

// std is the process-wide configuration. It is created once and never
// replaced, so views obtained from it stay valid for the process lifetime.
var std = New()

// Default returns the process-wide configuration.
func Default() *Config {
	return std
}

// Root returns the root view of the process-wide configuration.
func Root() *registry.View {
	return std.Root()
}

// Load merges data into ns of the process-wide configuration.
func Load(data map[string]any, ns string) error {
	return std.Load(data, ns)
}

// LoadFiles merges files matching pattern into ns of the process-wide
// configuration.
func LoadFiles(pattern, ns string, opts ...FileOption) error {
	return std.LoadFiles(pattern, ns, opts...)
}

// Set stores key in ns of the process-wide configuration.
func Set(key string, value any, ns string) error {
	return std.Set(key, value, ns)
}

// Namespace returns an existing namespace of the process-wide configuration.
func Namespace(ns string) (*registry.View, error) {
	return std.Namespace(ns)
}
