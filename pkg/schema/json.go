package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON accepts the loose shapes found in stored schemas: numeric
// ids, colSpan/min/max as numbers or strings, and blank strings for unset
// bounds.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	aux := struct {
		*plain
		ID      json.RawMessage `json:"id"`
		Order   json.RawMessage `json:"order"`
		ColSpan json.RawMessage `json:"colSpan"`
		Min     json.RawMessage `json:"min"`
		Max     json.RawMessage `json:"max"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if f.ID, err = flexString(aux.ID); err != nil {
		return fmt.Errorf("schema: field id: %w", err)
	}
	if f.Order, err = flexOrder(aux.Order); err != nil {
		return fmt.Errorf("schema: field %q order: %w", f.Name, err)
	}
	span, err := flexInt(aux.ColSpan)
	if err != nil {
		return fmt.Errorf("schema: field %q colSpan: %w", f.Name, err)
	}
	f.ColSpan = 0
	if span != nil {
		f.ColSpan = *span
	}
	if f.Min, err = flexInt(aux.Min); err != nil {
		return fmt.Errorf("schema: field %q min: %w", f.Name, err)
	}
	if f.Max, err = flexInt(aux.Max); err != nil {
		return fmt.Errorf("schema: field %q max: %w", f.Name, err)
	}
	return nil
}

// UnmarshalJSON accepts numeric ids and values.
func (o *FieldOption) UnmarshalJSON(data []byte) error {
	type plain FieldOption
	aux := struct {
		*plain
		ID    json.RawMessage `json:"id"`
		Order json.RawMessage `json:"order"`
		Value json.RawMessage `json:"value"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if o.ID, err = flexString(aux.ID); err != nil {
		return fmt.Errorf("schema: option id: %w", err)
	}
	if o.Order, err = flexOrder(aux.Order); err != nil {
		return fmt.Errorf("schema: option order: %w", err)
	}
	if o.Value, err = flexString(aux.Value); err != nil {
		return fmt.Errorf("schema: option value: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts numeric ids and string orders.
func (s *Section) UnmarshalJSON(data []byte) error {
	type plain Section
	aux := struct {
		*plain
		ID    json.RawMessage `json:"id"`
		Order json.RawMessage `json:"order"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if s.ID, err = flexString(aux.ID); err != nil {
		return fmt.Errorf("schema: section id: %w", err)
	}
	if s.Order, err = flexOrder(aux.Order); err != nil {
		return fmt.Errorf("schema: section order: %w", err)
	}
	return nil
}

// UnmarshalJSON accepts a numeric form id.
func (c *FormConfig) UnmarshalJSON(data []byte) error {
	type plain FormConfig
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := flexString(aux.ID)
	if err != nil {
		return fmt.Errorf("schema: form id: %w", err)
	}
	c.ID = id
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func flexString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}
	switch v := decoded.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}

func flexInt(raw json.RawMessage) (*int, error) {
	if isNull(raw) {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("expected integer, got %v", v)
		}
		n := int(v)
		return &n, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v)
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("unsupported value %s", string(raw))
	}
}

func flexOrder(raw json.RawMessage) (int, error) {
	n, err := flexInt(raw)
	if err != nil || n == nil {
		return 0, err
	}
	return *n, nil
}
