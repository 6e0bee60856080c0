package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/dshills/nsconf/internal/config"
	"github.com/dshills/nsconf/internal/logger"
)

type loadOptions struct {
	files   []string
	perFile bool
}

// fileSpec is one --file value: a glob pattern and its target namespace.
type fileSpec struct {
	pattern   string
	namespace string
}

// defaultPattern is loaded into the root when no --file flag is given.
func defaultPattern() string {
	return filepath.Join(xdg.ConfigHome, "nsconf", "*.json")
}

// parseFileSpec splits "pattern=namespace". The namespace is optional and
// defaults to the root.
func parseFileSpec(s string) (fileSpec, error) {
	if s == "" {
		return fileSpec{}, fmt.Errorf("empty --file value")
	}
	i := strings.LastIndex(s, "=")
	if i < 0 {
		return fileSpec{pattern: s}, nil
	}
	if i == 0 {
		return fileSpec{}, fmt.Errorf("--file %q: missing pattern", s)
	}
	return fileSpec{pattern: s[:i], namespace: s[i+1:]}, nil
}

func (o *loadOptions) specs() ([]fileSpec, error) {
	if len(o.files) == 0 {
		return []fileSpec{{pattern: defaultPattern()}}, nil
	}
	specs := make([]fileSpec, 0, len(o.files))
	for _, f := range o.files {
		spec, err := parseFileSpec(f)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (o *loadOptions) fileOptions() []config.FileOption {
	if o.perFile {
		return []config.FileOption{config.WithFileNamespaces()}
	}
	return nil
}

func newConfig() *config.Config {
	return config.New(config.WithLogger(logger.Get()))
}

// load builds a Config from the --file flags.
func (o *loadOptions) load() (*config.Config, error) {
	specs, err := o.specs()
	if err != nil {
		return nil, err
	}

	cfg := newConfig()
	for _, spec := range specs {
		if err := cfg.LoadFiles(spec.pattern, spec.namespace, o.fileOptions()...); err != nil {
			_ = cfg.Close()
			return nil, err
		}
	}
	return cfg, nil
}
