package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// Loader matches and decodes configuration files.
type Loader struct {
	fs       FileSystem
	decoders map[string]Decoder
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the file system used for globbing and reading.
func WithFS(fsys FileSystem) Option {
	return func(l *Loader) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithDecoder registers d for files with the given extension (".ini").
// It replaces any decoder already registered for that extension.
func WithDecoder(ext string, d Decoder) Option {
	return func(l *Loader) {
		l.decoders[normalizeExt(ext)] = d
	}
}

// New creates a Loader over the OS file system with JSON, TOML and YAML decoders.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:       DefaultFS(),
		decoders: defaultDecoders(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Glob expands pattern into file paths in lexical order.
// A pattern that matches nothing returns no paths and no error.
func (l *Loader) Glob(pattern string) ([]string, error) {
	matches, err := l.fs.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadFile reads and decodes the file at path. Every failure is a *LoadError.
func (l *Loader) LoadFile(path string) (map[string]any, error) {
	dec, err := l.decoderFor(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	config, err := dec.Decode(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return config, nil
}

// LoadReader decodes a document read from r. format is an extension
// such as "json" or ".yaml".
func (l *Loader) LoadReader(r io.Reader, format string) (map[string]any, error) {
	source := "<reader>"
	dec, ok := l.decoders[normalizeExt(format)]
	if !ok {
		return nil, &LoadError{Path: source, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Path: source, Err: err}
	}

	config, err := dec.Decode(data)
	if err != nil {
		return nil, &LoadError{Path: source, Err: err}
	}
	return config, nil
}

// Supports reports whether a decoder is registered for path's extension.
func (l *Loader) Supports(path string) bool {
	_, err := l.decoderFor(path)
	return err == nil
}

func (l *Loader) decoderFor(path string) (Decoder, error) {
	ext := normalizeExt(filepath.Ext(path))
	dec, ok := l.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return dec, nil
}

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
