package loader

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Decoder turns raw file content into a top-level mapping.
type Decoder interface {
	Decode(data []byte) (map[string]any, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (map[string]any, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (map[string]any, error) {
	return f(data)
}

// JSONDecoder decodes JSON. Comments and trailing commas (JWCC) are accepted.
type JSONDecoder struct{}

// Decode implements Decoder.
func (JSONDecoder) Decode(data []byte) (map[string]any, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, err
	}
	return asMapping(raw)
}

// TOMLDecoder decodes TOML documents.
type TOMLDecoder struct{}

// Decode implements Decoder.
func (TOMLDecoder) Decode(data []byte) (map[string]any, error) {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if config == nil {
		config = make(map[string]any)
	}
	return config, nil
}

// YAMLDecoder decodes YAML documents. An empty document decodes to an empty map.
type YAMLDecoder struct{}

// Decode implements Decoder.
func (YAMLDecoder) Decode(data []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return make(map[string]any), nil
	}
	return asMapping(raw)
}

func asMapping(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, raw)
	}
	return m, nil
}

// defaultDecoders maps lower-case file extensions to decoders.
func defaultDecoders() map[string]Decoder {
	return map[string]Decoder{
		".json":  JSONDecoder{},
		".jsonc": JSONDecoder{},
		".toml":  TOMLDecoder{},
		".yaml":  YAMLDecoder{},
		".yml":   YAMLDecoder{},
	}
}
