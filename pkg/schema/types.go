package schema

import (
	"strings"

	"github.com/goliatone/go-formengine/pkg/locale"
)

// FieldType is the closed enumeration of input kinds a form can declare.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldPhone       FieldType = "phone"
	FieldEmail       FieldType = "email"
	FieldNumber      FieldType = "number"
	FieldTextarea    FieldType = "textarea"
	FieldCheckbox    FieldType = "checkbox"
	FieldRadio       FieldType = "radio"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldDate        FieldType = "date"
	FieldUploadImage FieldType = "upload_image"
)

// FieldTypes lists every supported type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldText, FieldPhone, FieldEmail, FieldNumber, FieldTextarea,
		FieldCheckbox, FieldRadio, FieldSelect, FieldMultiSelect,
		FieldDate, FieldUploadImage,
	}
}

// Valid reports whether t belongs to the enumeration.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsChoice reports whether the type selects among options.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldCheckbox, FieldRadio, FieldSelect, FieldMultiSelect:
		return true
	default:
		return false
	}
}

// AcceptsBounds reports whether min/max apply to the type.
func (t FieldType) AcceptsBounds() bool {
	return t == FieldNumber
}

const (
	MinColSpan     = 3
	MaxColSpan     = 12
	DefaultColSpan = 6
)

// FieldOption is a single selectable choice. Value is unique within the
// owning field.
type FieldOption struct {
	ID      string `json:"id"`
	Order   int    `json:"order"`
	Value   string `json:"value"`
	LabelEN string `json:"label_en"`
	LabelAR string `json:"label_ar"`
}

// Label returns the option label for the locale.
func (o FieldOption) Label(l locale.Locale) string {
	return l.Pick(o.LabelEN, o.LabelAR)
}

// Mapping names the keys used to read value and labels from remote option
// rows. Blank entries fall back to the identically-named key.
type Mapping struct {
	Value   string `json:"value,omitempty"`
	LabelEN string `json:"label_en,omitempty"`
	LabelAR string `json:"label_ar,omitempty"`
}

// APIData describes a remote option source. When URL is set it supersedes
// the static Items at render time.
type APIData struct {
	URL     string  `json:"url"`
	Header  string  `json:"header,omitempty"`
	Mapping Mapping `json:"mapping"`
}

// Field is one input definition. Name is the key used in answer state and the
// submission payload and must be unique across the whole form.
type Field struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	LabelEN       string        `json:"label_en"`
	LabelAR       string        `json:"label_ar"`
	Type          FieldType     `json:"type"`
	PlaceholderEN string        `json:"placeholder_en"`
	PlaceholderAR string        `json:"placeholder_ar"`
	Required      bool          `json:"required,omitempty"`
	Order         int           `json:"order"`
	ColSpan       int           `json:"colSpan,omitempty"`
	Min           *int          `json:"min,omitempty"`
	Max           *int          `json:"max,omitempty"`
	HelpEN        string        `json:"help_en,omitempty"`
	HelpAR        string        `json:"help_ar,omitempty"`
	APIData       *APIData      `json:"apiData,omitempty"`
	Items         []FieldOption `json:"items,omitempty"`
	VisibleWhen   string        `json:"visibleWhen,omitempty"`
}

// Label returns the field label for the locale, falling back to Name.
func (f Field) Label(l locale.Locale) string {
	if label := l.Pick(f.LabelEN, f.LabelAR); strings.TrimSpace(label) != "" {
		return label
	}
	return f.Name
}

// Placeholder returns the placeholder for the locale.
func (f Field) Placeholder(l locale.Locale) string {
	return l.Pick(f.PlaceholderEN, f.PlaceholderAR)
}

// Help returns the help text for the locale.
func (f Field) Help(l locale.Locale) string {
	return l.Pick(f.HelpEN, f.HelpAR)
}

// Span returns the grid width clamped to MinColSpan..MaxColSpan.
func (f Field) Span() int {
	switch {
	case f.ColSpan == 0:
		return DefaultColSpan
	case f.ColSpan < MinColSpan:
		return MinColSpan
	case f.ColSpan > MaxColSpan:
		return MaxColSpan
	default:
		return f.ColSpan
	}
}

// HasRemoteOptions reports whether options come from apiData.
func (f Field) HasRemoteOptions() bool {
	return f.APIData != nil && strings.TrimSpace(f.APIData.URL) != ""
}

// IsMulti reports whether the answer for the field is a list of values.
// A checkbox with no items is a single boolean toggle.
func (f Field) IsMulti() bool {
	switch f.Type {
	case FieldMultiSelect:
		return true
	case FieldCheckbox:
		return len(f.Items) > 0 || f.HasRemoteOptions()
	default:
		return false
	}
}

// Section is a named, ordered group of fields.
type Section struct {
	ID            string  `json:"id"`
	LabelEN       string  `json:"section_label_en"`
	LabelAR       string  `json:"section_label_ar"`
	DescriptionEN string  `json:"section_description_en"`
	DescriptionAR string  `json:"section_description_ar"`
	Icon          string  `json:"section_icon"`
	Order         int     `json:"order"`
	Fields        []Field `json:"Fields"`
}

// Label returns the section label for the locale.
func (s Section) Label(l locale.Locale) string {
	return l.Pick(s.LabelEN, s.LabelAR)
}

// Description returns the section description for the locale.
func (s Section) Description(l locale.Locale) string {
	return l.Pick(s.DescriptionEN, s.DescriptionAR)
}

// FormConfig is the root artifact: the builder's edit buffer and the
// renderer's input.
type FormConfig struct {
	ID       string    `json:"id,omitempty"`
	Sections []Section `json:"sections"`
}

// Empty reports whether the config declares no fields at all.
func (c FormConfig) Empty() bool {
	for _, section := range c.Sections {
		if len(section.Fields) > 0 {
			return false
		}
	}
	return true
}
