package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is an undecoded form payload tagged with where it came from.
type Document struct {
	origin Source
	body   []byte
}

// NewDocument copies raw and rejects blank payloads.
func NewDocument(src Source, raw []byte) (Document, error) {
	switch {
	case src == nil:
		return Document{}, errors.New("schema: document has no source")
	case len(bytes.TrimSpace(raw)) == 0:
		return Document{}, fmt.Errorf("schema: %s is empty", src.Location())
	}
	return Document{origin: src, body: bytes.Clone(raw)}, nil
}

// Location reports where the document was read from.
func (d Document) Location() string {
	if d.origin == nil {
		return ""
	}
	return d.origin.Location()
}

// FormConfig decodes the document; failures are LoadErrors.
func (d Document) FormConfig() (FormConfig, error) {
	cfg, err := Parse(d.body)
	if err != nil {
		return FormConfig{}, &LoadError{Location: d.Location(), Err: err}
	}
	return cfg, nil
}

// Parse decodes a JSON or YAML FormConfig payload.
func Parse(raw []byte) (FormConfig, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return FormConfig{}, errors.New("schema: document is empty")
	}

	var cfg FormConfig
	jsonErr := json.Unmarshal(trimmed, &cfg)
	if jsonErr == nil {
		return cfg, nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return FormConfig{}, fmt.Errorf("schema: decode json: %w", jsonErr)
	}

	var generic any
	if err := yaml.Unmarshal(trimmed, &generic); err != nil {
		return FormConfig{}, fmt.Errorf("schema: decode yaml: %w", err)
	}
	if _, ok := generic.(map[string]any); !ok {
		return FormConfig{}, errors.New("schema: document must be an object")
	}
	bridged, err := json.Marshal(generic)
	if err != nil {
		return FormConfig{}, fmt.Errorf("schema: bridge yaml: %w", err)
	}
	if err := json.Unmarshal(bridged, &cfg); err != nil {
		return FormConfig{}, fmt.Errorf("schema: decode yaml: %w", err)
	}
	return cfg, nil
}

var errLoaderMissing = errors.New("schema: loader is not configured")

// LoadError marks a failure to obtain or decode a form schema. Hosts use it to
// show a load-error state instead of an empty form.
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	location := strings.TrimSpace(e.Location)
	if location == "" {
		return fmt.Sprintf("schema: load failed: %v", e.Err)
	}
	return fmt.Sprintf("schema: load %s failed: %v", location, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is (or wraps) a LoadError.
func IsLoadError(err error) bool {
	var target *LoadError
	return errors.As(err, &target)
}
