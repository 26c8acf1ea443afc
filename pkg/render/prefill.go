package render

import (
	"github.com/goliatone/go-formengine/pkg/schema"
)

// hydrate merges a flat prefill record into answer state. Keys the schema
// declares are coerced to the field's shape; other keys are kept as-is.
func (s *Session) hydrate(record map[string]any) {
	if len(record) == 0 {
		return
	}
	record = RemapImageKeys(s.cfg, record, s.imageAliases)

	for key, raw := range record {
		field, ok := s.cfg.FieldByName(key)
		if !ok {
			s.answers[key] = raw
			continue
		}
		value, err := handlerFor(field).coerce(field, raw)
		if err != nil {
			s.logger.Warn("prefill value ignored", "field", key, "error", err)
			continue
		}
		s.answers[key] = value
	}
}

// RemapImageKeys returns a copy of record where, for each image field whose
// name is absent, the first alias key present is moved onto the field name.
// No other key is touched.
func RemapImageKeys(cfg schema.FormConfig, record map[string]any, aliases []string) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	for _, field := range cfg.FieldsOfType(schema.FieldUploadImage) {
		if _, ok := out[field.Name]; ok {
			continue
		}
		for _, alias := range aliases {
			if alias == field.Name {
				continue
			}
			if v, ok := out[alias]; ok {
				out[field.Name] = v
				delete(out, alias)
				break
			}
		}
	}
	return out
}
