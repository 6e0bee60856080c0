// Package export renders a namespace subtree as a single JSON document and
// evaluates path queries against it.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/nsconf/internal/config/registry"
)

// ErrNoMatch indicates a query path selected nothing.
var ErrNoMatch = errors.New("no value at path")

// JSON renders v as a JSON object: the view's own entries plus one nested
// object per child namespace, recursively. When a child namespace and an
// entry share a name, the child namespace wins.
func JSON(v *registry.View) ([]byte, error) {
	own := make(map[string]any, v.Len())
	for key, value := range v.All() {
		own[key] = value
	}
	// sjson cannot address every key (the empty one included), so entries
	// are encoded in one step.
	doc, err := json.Marshal(own)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", v, err)
	}

	// Child names are namespace components and never need escaping.
	children := v.Namespaces()
	for _, name := range slices.Sorted(maps.Keys(children)) {
		sub, err := JSON(children[name])
		if err != nil {
			return nil, err
		}
		doc, err = sjson.SetRawBytes(doc, name, sub)
		if err != nil {
			return nil, fmt.Errorf("exporting namespace %q in %s: %w", name, v, err)
		}
	}
	return doc, nil
}

// Pretty renders v like JSON, indented for humans.
func Pretty(v *registry.View) ([]byte, error) {
	doc, err := JSON(v)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(doc), nil
}

// Query evaluates a gjson path against the rendered subtree of v.
//
//	Query(root, "service.database.port")
//	Query(root, "service.hosts.#")
func Query(v *registry.View, path string) (gjson.Result, error) {
	doc, err := JSON(v)
	if err != nil {
		return gjson.Result{}, err
	}
	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return res, fmt.Errorf("%w: %q", ErrNoMatch, path)
	}
	return res, nil
}
