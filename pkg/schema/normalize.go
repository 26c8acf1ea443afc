package schema

import (
	"fmt"
	"net/url"
	"strings"
)

var typeAliases = map[string]FieldType{
	"string":       FieldText,
	"tel":          FieldPhone,
	"mobile":       FieldPhone,
	"multi_select": FieldMultiSelect,
	"multi-select": FieldMultiSelect,
	"image":        FieldUploadImage,
	"upload":       FieldUploadImage,
	"uploadimage":  FieldUploadImage,
}

// Normalize resolves the loose shapes stored schemas carry so downstream code
// can rely on a single interpretation:
//
//   - field types are lower-cased and legacy aliases mapped onto the enum
//   - colSpan is clamped to 3..12 (0 becomes the default of 6)
//   - min/max are dropped from types that do not honour them
//   - items are dropped from non-choice types
//   - an apiData block with a blank url is removed
//   - section icons are sanitized
//
// Unknown types are left untouched; Lint reports them.
func Normalize(cfg FormConfig) FormConfig {
	out := cfg.Clone()
	for i := range out.Sections {
		section := &out.Sections[i]
		section.Icon = SanitizeIcon(section.Icon)
		for j := range section.Fields {
			normalizeField(&section.Fields[j])
		}
	}
	return out
}

func normalizeField(field *Field) {
	field.Name = strings.TrimSpace(field.Name)

	raw := strings.ToLower(strings.TrimSpace(string(field.Type)))
	if alias, ok := typeAliases[raw]; ok {
		field.Type = alias
	} else {
		field.Type = FieldType(raw)
	}

	field.ColSpan = field.Span()

	if !field.Type.AcceptsBounds() {
		field.Min, field.Max = nil, nil
	}
	if !field.Type.IsChoice() {
		field.Items = nil
		field.APIData = nil
	}
	if field.APIData != nil && strings.TrimSpace(field.APIData.URL) == "" {
		field.APIData = nil
	}
	for k := range field.Items {
		field.Items[k].Value = strings.TrimSpace(field.Items[k].Value)
	}
}

// Issue describes a structural problem in a FormConfig.
type Issue struct {
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Issues aggregates lint findings and implements error.
type Issues []Issue

func (is Issues) Error() string {
	if len(is) == 0 {
		return ""
	}
	parts := make([]string, 0, len(is))
	for _, issue := range is {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "schema: " + strings.Join(parts, "; ")
}

// Err returns nil when there are no issues.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	return is
}

// Lint checks the invariants a complete form must satisfy: unique non-empty
// field names, known types, unique non-empty option values, sane bounds and
// parseable option source urls.
func Lint(cfg FormConfig) Issues {
	var issues Issues
	add := func(path, field, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]string)
	for i, section := range cfg.Sections {
		for j, field := range section.Fields {
			path := fmt.Sprintf("sections[%d].Fields[%d]", i, j)
			name := strings.TrimSpace(field.Name)

			switch {
			case name == "":
				add(path, "", "field name is required")
			case seen[name] != "":
				add(path, name, "field name %q already used at %s", name, seen[name])
			default:
				seen[name] = path
			}

			if !field.Type.Valid() {
				add(path, name, "unknown field type %q", field.Type)
			}
			if field.ColSpan != 0 && (field.ColSpan < MinColSpan || field.ColSpan > MaxColSpan) {
				add(path, name, "colSpan %d outside %d..%d", field.ColSpan, MinColSpan, MaxColSpan)
			}
			if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
				add(path, name, "min %d greater than max %d", *field.Min, *field.Max)
			}
			if len(field.Items) > 0 && !field.Type.IsChoice() {
				add(path, name, "type %q does not take items", field.Type)
			}
			if field.HasRemoteOptions() {
				if _, err := url.ParseRequestURI(field.APIData.URL); err != nil {
					add(path+".apiData.url", name, "invalid url %q", field.APIData.URL)
				}
			}

			values := make(map[string]struct{}, len(field.Items))
			for k, option := range field.Items {
				optPath := fmt.Sprintf("%s.items[%d]", path, k)
				value := strings.TrimSpace(option.Value)
				if value == "" {
					add(optPath, name, "option value is required")
					continue
				}
				if _, dup := values[value]; dup {
					add(optPath, name, "duplicate option value %q", value)
					continue
				}
				values[value] = struct{}{}
			}
		}
	}
	return issues
}
