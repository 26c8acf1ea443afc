package schema

import (
	"sort"

	"github.com/google/uuid"
)

// NewID returns a fresh identifier for a section, field or option. Ids are
// never reused.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the config.
func (c FormConfig) Clone() FormConfig {
	out := FormConfig{ID: c.ID}
	if c.Sections == nil {
		return out
	}
	out.Sections = make([]Section, len(c.Sections))
	for i, section := range c.Sections {
		out.Sections[i] = section.Clone()
	}
	return out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, field := range s.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Min != nil {
		v := *f.Min
		out.Min = &v
	}
	if f.Max != nil {
		v := *f.Max
		out.Max = &v
	}
	if f.APIData != nil {
		api := *f.APIData
		out.APIData = &api
	}
	if f.Items != nil {
		out.Items = append([]FieldOption(nil), f.Items...)
	}
	return out
}

// OrderedSections returns a sorted copy of the sections, with each section's
// fields and each field's options sorted ascending by order. The receiver is
// not modified.
func (c FormConfig) OrderedSections() []Section {
	if len(c.Sections) == 0 {
		return nil
	}
	sections := c.Clone().Sections
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
	for i := range sections {
		fields := sections[i].Fields
		sort.SliceStable(fields, func(a, b int) bool {
			return fields[a].Order < fields[b].Order
		})
		for j := range fields {
			items := fields[j].Items
			sort.SliceStable(items, func(a, b int) bool {
				return items[a].Order < items[b].Order
			})
		}
	}
	return sections
}

// Fields flattens the config into render order.
func (c FormConfig) Fields() []Field {
	var out []Field
	for _, section := range c.OrderedSections() {
		out = append(out, section.Fields...)
	}
	return out
}

// FieldByName returns the first field with the supplied name.
func (c FormConfig) FieldByName(name string) (Field, bool) {
	for _, section := range c.Sections {
		for _, field := range section.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}

// FieldsOfType returns every field of the given type in render order.
func (c FormConfig) FieldsOfType(t FieldType) []Field {
	var out []Field
	for _, field := range c.Fields() {
		if field.Type == t {
			out = append(out, field)
		}
	}
	return out
}
