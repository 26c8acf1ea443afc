package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/schema"
)

var datePattern = `^\d{4}-\d{2}-\d{2}$`

var emailFormat sync.Once

// defineEmailFormat turns on kin-openapi's loose email check, which is not
// registered by default.
func defineEmailFormat() {
	openapi3.DefineStringFormatValidator("email",
		openapi3.NewRegexpFormatValidator(openapi3.FormatOfStringForEmail))
}

// PayloadSchema describes the submission payload of cfg as an OpenAPI schema
// so the REST side can publish and enforce the same contract the viewer
// applies. Titles use the supplied locale.
func PayloadSchema(cfg schema.FormConfig, l locale.Locale) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Title = cfg.ID

	for _, field := range cfg.Fields() {
		prop := fieldSchema(field)
		prop.Title = field.Label(l)
		if help := field.Help(l); help != "" {
			prop.Description = help
		}
		root.WithProperty(field.Name, prop)
		if field.Required {
			root.Required = append(root.Required, field.Name)
		}
	}
	return root
}

func fieldSchema(field schema.Field) *openapi3.Schema {
	switch field.Type {
	case schema.FieldCheckbox:
		if !field.IsMulti() {
			return openapi3.NewBoolSchema()
		}
		return listSchema(field)
	case schema.FieldMultiSelect:
		return listSchema(field)
	case schema.FieldUploadImage:
		return openapi3.NewStringSchema().WithFormat("binary")
	case schema.FieldDate:
		return openapi3.NewStringSchema().WithPattern(datePattern)
	case schema.FieldEmail:
		return requiredString(field, openapi3.NewStringSchema().WithFormat("email"))
	case schema.FieldNumber:
		s := requiredString(field, openapi3.NewStringSchema())
		if field.Min != nil {
			s.WithMinLength(int64(*field.Min))
		}
		if field.Max != nil {
			s.WithMaxLength(int64(*field.Max))
		}
		return s
	case schema.FieldRadio, schema.FieldSelect:
		s := requiredString(field, openapi3.NewStringSchema())
		if values := staticValues(field); len(values) > 0 {
			s.WithEnum(values...)
		}
		return s
	default:
		return requiredString(field, openapi3.NewStringSchema())
	}
}

func requiredString(field schema.Field, s *openapi3.Schema) *openapi3.Schema {
	if field.Required {
		s.WithMinLength(1)
	}
	return s
}

func listSchema(field schema.Field) *openapi3.Schema {
	item := openapi3.NewStringSchema()
	if values := staticValues(field); len(values) > 0 {
		item.WithEnum(values...)
	}
	s := openapi3.NewArraySchema().WithItems(item)
	if field.Required {
		s.WithMinItems(1)
	}
	return s
}

// staticValues lists option values only when the options are fixed in the
// schema; remote options are unknown until resolved.
func staticValues(field schema.Field) []any {
	if field.HasRemoteOptions() || len(field.Items) == 0 {
		return nil
	}
	out := make([]any, 0, len(field.Items))
	for _, option := range field.Items {
		out = append(out, option.Value)
	}
	return out
}

// ValidatePayload checks a flat answer record against PayloadSchema. File
// values are skipped since they travel as multipart parts, and empty values
// count as absent.
func ValidatePayload(cfg schema.FormConfig, values map[string]any) error {
	emailFormat.Do(defineEmailFormat)
	doc := PayloadSchema(cfg, locale.Default)

	plain := make(map[string]any, len(values))
	for _, field := range cfg.Fields() {
		value, ok := values[field.Name]
		if !ok || IsEmpty(value) || field.Type == schema.FieldUploadImage {
			if field.Type == schema.FieldUploadImage {
				removeRequired(doc, field.Name)
			}
			continue
		}
		plain[field.Name] = value
	}

	normalized, err := jsonValue(plain)
	if err != nil {
		return fmt.Errorf("validation: normalize payload: %w", err)
	}
	if err := doc.VisitJSON(normalized, openapi3.MultiErrors()); err != nil {
		return fmt.Errorf("validation: payload: %w", err)
	}
	return nil
}

// PayloadErrors attributes the violations in an error from ValidatePayload
// to the fields they concern. Each field gets one localized message.
// Violations that name no field of cfg are left out.
func PayloadErrors(cfg schema.FormConfig, err error, l locale.Locale) Errors {
	errs := make(Errors)
	for _, se := range schemaErrors(err) {
		pointer := se.JSONPointer()
		if len(pointer) == 0 {
			continue
		}
		field, ok := cfg.FieldByName(pointer[0])
		if !ok {
			continue
		}
		if _, seen := errs[field.Name]; seen {
			continue
		}
		kind := msgInvalid
		switch se.SchemaField {
		case "required", "minItems":
			kind = msgRequired
		case "minLength":
			if field.Type != schema.FieldNumber {
				kind = msgRequired
			}
		}
		errs[field.Name] = message(kind, l, field.Label(l), 0)
	}
	return errs
}

func schemaErrors(err error) []*openapi3.SchemaError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []*openapi3.SchemaError
		for _, inner := range multi {
			out = append(out, schemaErrors(inner)...)
		}
		return out
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		return []*openapi3.SchemaError{se}
	}
	return nil
}

func removeRequired(s *openapi3.Schema, name string) {
	out := s.Required[:0]
	for _, required := range s.Required {
		if required != name {
			out = append(out, required)
		}
	}
	s.Required = out
}

func jsonValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
