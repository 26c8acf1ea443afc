// Package validation maps a field definition and a candidate value to a
// localized error message. It never returns errors; an empty message means
// the value is acceptable.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Validate applies the field rules in order, first match wins:
//
//  1. required and empty -> "<label> is required"
//  2. non-empty number field -> character-length bounds from min/max
//  3. otherwise no message
func Validate(field schema.Field, value any, l locale.Locale) string {
	label := field.Label(l)
	empty := IsEmpty(value)

	if field.Required && empty {
		return message(msgRequired, l, label, 0)
	}
	if empty || field.Type != schema.FieldNumber {
		return ""
	}

	length := utf8.RuneCountInString(Stringify(value))
	min, max := field.Min, field.Max

	if min != nil && max != nil && *min == *max {
		if length != *min {
			return message(msgExactLength, l, label, *min)
		}
		return ""
	}
	if min != nil && length < *min {
		return message(msgMinLength, l, label, *min)
	}
	if max != nil && length > *max {
		return message(msgMaxLength, l, label, *max)
	}
	return ""
}

// Emptier lets answer values define their own emptiness.
type Emptier interface {
	IsEmpty() bool
}

// IsEmpty reports whether a value counts as missing. nil, the empty string and
// empty lists are empty; an unchecked single checkbox (false) is empty too so
// a required toggle has to be switched on.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case Emptier:
		return v.IsEmpty()
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	case bool:
		return !v
	case []string:
		return Stringify(v) == ""
	case []any:
		return Stringify(v) == ""
	default:
		return Stringify(v) == ""
	}
}

// Stringify coerces an answer value to the string used for length checks.
// Lists join with commas.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case fmt.Stringer:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

// Errors maps field names to messages. Only fields with a message are
// present.
type Errors map[string]string

// Empty reports whether no field carries a message.
func (e Errors) Empty() bool {
	for _, msg := range e {
		if msg != "" {
			return false
		}
	}
	return true
}

// FormOption tunes ValidateForm.
type FormOption func(*formConfig)

type formConfig struct {
	include func(schema.Field) bool
}

// WithFieldFilter skips fields for which include returns false, for example
// fields hidden by a visibility rule.
func WithFieldFilter(include func(schema.Field) bool) FormOption {
	return func(cfg *formConfig) {
		cfg.include = include
	}
}

// ValidateForm runs Validate once per field across all sections and collects
// the non-empty messages.
func ValidateForm(cfg schema.FormConfig, answers map[string]any, l locale.Locale, opts ...FormOption) Errors {
	conf := formConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&conf)
		}
	}

	errs := make(Errors)
	for _, field := range cfg.Fields() {
		if conf.include != nil && !conf.include(field) {
			continue
		}
		if msg := Validate(field, answers[field.Name], l); msg != "" {
			errs[field.Name] = msg
		}
	}
	return errs
}
