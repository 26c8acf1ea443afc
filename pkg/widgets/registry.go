// Package widgets chooses the input widget used to present a field. Hosts
// (terminal prompts, HTML preview) switch on the resolved widget name rather
// than on the raw field type.
package widgets

import (
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Built-in widget identifiers.
const (
	WidgetTextInput     = "text-input"
	WidgetTextarea      = "textarea"
	WidgetToggle        = "toggle"
	WidgetCheckboxGroup = "checkbox-group"
	WidgetRadioGroup    = "radio-group"
	WidgetSelect        = "select"
	WidgetMultiList     = "multi-list"
	WidgetDatePicker    = "date-picker"
	WidgetImageUpload   = "image-upload"
)

// InputKind returns the HTML input type for text-like fields.
func InputKind(t schema.FieldType) string {
	switch t {
	case schema.FieldEmail:
		return "email"
	case schema.FieldPhone:
		return "tel"
	default:
		return "text"
	}
}

// Matcher reports whether a widget can present field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
}

// Registry picks a widget per field. Rules are kept sorted by descending
// priority; equal priorities keep registration order. Per-field overrides
// beat every rule.
type Registry struct {
	mu        sync.RWMutex
	rules     []rule
	overrides map[string]string
}

// NewRegistry returns a registry covering every built-in field type.
func NewRegistry() *Registry {
	r := &Registry{overrides: map[string]string{}}
	for _, b := range builtins {
		r.Register(b.name, b.priority, b.match)
	}
	return r
}

// Register adds a rule. Blank names and nil matchers are ignored.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	name = strings.TrimSpace(name)
	if r == nil || matcher == nil || name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	at := slices.IndexFunc(r.rules, func(existing rule) bool { return existing.priority < priority })
	if at < 0 {
		at = len(r.rules)
	}
	r.rules = slices.Insert(r.rules, at, rule{name: name, priority: priority, match: matcher})
}

// Use pins the widget for the field called fieldName.
func (r *Registry) Use(fieldName, widget string) {
	fieldName, widget = strings.TrimSpace(fieldName), strings.TrimSpace(widget)
	if r == nil || fieldName == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if widget == "" {
		delete(r.overrides, fieldName)
		return
	}
	r.overrides[fieldName] = widget
}

// Resolve returns the widget for field and false when nothing matches.
func (r *Registry) Resolve(field schema.Field) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if widget, ok := r.overrides[field.Name]; ok {
		return widget, true
	}
	for _, entry := range r.rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

func ofType(types ...schema.FieldType) Matcher {
	return func(field schema.Field) bool {
		return slices.Contains(types, field.Type)
	}
}

var builtins = []rule{
	{WidgetCheckboxGroup, 90, func(f schema.Field) bool { return f.Type == schema.FieldCheckbox && f.IsMulti() }},
	{WidgetToggle, 80, ofType(schema.FieldCheckbox)},
	{WidgetRadioGroup, 50, ofType(schema.FieldRadio)},
	{WidgetSelect, 50, ofType(schema.FieldSelect)},
	{WidgetMultiList, 50, ofType(schema.FieldMultiSelect)},
	{WidgetDatePicker, 50, ofType(schema.FieldDate)},
	{WidgetImageUpload, 50, ofType(schema.FieldUploadImage)},
	{WidgetTextarea, 50, ofType(schema.FieldTextarea)},
	{WidgetTextInput, 10, ofType(schema.FieldText, schema.FieldPhone, schema.FieldEmail, schema.FieldNumber)},
}
