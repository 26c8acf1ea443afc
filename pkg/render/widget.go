package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Shape names the Go type an answer takes for a field.
type Shape int

const (
	ShapeString Shape = iota
	ShapeStrings
	ShapeBool
	ShapeImage
)

// valueHandler coerces raw input into the answer shape of one field type.
type valueHandler struct {
	shape  func(schema.Field) Shape
	coerce func(field schema.Field, in any) (any, error)
}

func fixed(shape Shape) func(schema.Field) Shape {
	return func(schema.Field) Shape { return shape }
}

// handlers is the lookup table keyed by field type. Every type declared in
// schema.FieldTypes has an entry; see init.
var handlers = map[schema.FieldType]valueHandler{
	schema.FieldText:     {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldPhone:    {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldEmail:    {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldNumber:   {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldTextarea: {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldRadio:    {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldSelect:   {shape: fixed(ShapeString), coerce: coerceString},
	schema.FieldCheckbox: {
		shape: func(field schema.Field) Shape {
			if field.IsMulti() {
				return ShapeStrings
			}
			return ShapeBool
		},
		coerce: coerceCheckbox,
	},
	schema.FieldMultiSelect: {shape: fixed(ShapeStrings), coerce: coerceStrings},
	schema.FieldDate:        {shape: fixed(ShapeString), coerce: coerceDate},
	schema.FieldUploadImage: {shape: fixed(ShapeImage), coerce: coerceImage},
}

func init() {
	for _, t := range schema.FieldTypes() {
		if _, ok := handlers[t]; !ok {
			panic(fmt.Sprintf("render: no value handler for field type %q", t))
		}
	}
}

func handlerFor(field schema.Field) valueHandler {
	if h, ok := handlers[field.Type]; ok {
		return h
	}
	return handlers[schema.FieldText]
}

// ShapeOf returns the answer shape for field.
func ShapeOf(field schema.Field) Shape {
	return handlerFor(field).shape(field)
}

func coerceString(_ schema.Field, in any) (any, error) {
	switch v := in.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []string, []any:
		return nil, fmt.Errorf("render: expected a single value, got %T", in)
	default:
		return validation.Stringify(v), nil
	}
}

func coerceStrings(_ schema.Field, in any) (any, error) {
	switch v := in.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, optionValue(item))
		}
		return out, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}, nil
		}
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("render: expected a list, got %T", in)
	}
}

// optionValue reads the value of an option-object prefill entry
// ({"value": "1", "label_en": ...}) or stringifies a scalar.
func optionValue(item any) string {
	if obj, ok := item.(map[string]any); ok {
		return validation.Stringify(obj["value"])
	}
	return validation.Stringify(item)
}

func coerceCheckbox(field schema.Field, in any) (any, error) {
	if field.IsMulti() {
		return coerceStrings(field, in)
	}
	switch v := in.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return false, nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return v == "1" || strings.EqualFold(v, "on") || strings.EqualFold(v, "yes"), nil
		}
		return parsed, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return nil, fmt.Errorf("render: expected a boolean, got %T", in)
	}
}

func coerceDate(_ schema.Field, in any) (any, error) {
	if in == nil {
		return "", nil
	}
	return NormalizeDate(in)
}

func coerceImage(_ schema.Field, in any) (any, error) {
	switch v := in.(type) {
	case nil:
		return ImageValue{}, nil
	case ImageValue:
		return v, nil
	case *ImageValue:
		if v == nil {
			return ImageValue{}, nil
		}
		return *v, nil
	case Upload:
		return ImageValue{File: &v, Changed: true}, nil
	case *Upload:
		return ImageValue{File: v, Changed: v != nil}, nil
	case string:
		return ImageValue{URL: strings.TrimSpace(v)}, nil
	case bool:
		// WordPress answers false for a missing attachment.
		if !v {
			return ImageValue{}, nil
		}
	}
	return nil, fmt.Errorf("render: unsupported image value %T", in)
}
