package render

import (
	"strings"

	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// SectionView is a section ready for presentation.
type SectionView struct {
	Section     schema.Section
	Label       string
	Description string
	Icon        string
	Fields      []FieldView
}

// FieldView is a field with its localized text, options and current state.
type FieldView struct {
	Field       schema.Field
	Label       string
	Placeholder string
	Help        string
	Span        int
	Shape       Shape
	Value       any
	Display     string
	Options     []schema.FieldOption
	Error       string
	Hidden      bool
}

// Sections returns sections and fields sorted by order with the current
// answers and errors applied. An empty config yields no sections.
func (s *Session) Sections() []SectionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cfg.Sections) == 0 {
		return nil
	}
	hidden := s.hiddenLocked()

	ordered := s.cfg.OrderedSections()
	out := make([]SectionView, 0, len(ordered))
	for _, section := range ordered {
		view := SectionView{
			Section:     section,
			Label:       section.Label(s.locale),
			Description: section.Description(s.locale),
			Icon:        section.Icon,
			Fields:      make([]FieldView, 0, len(section.Fields)),
		}
		for _, field := range section.Fields {
			view.Fields = append(view.Fields, s.fieldViewLocked(field, hidden[field.Name]))
		}
		out = append(out, view)
	}
	return out
}

func (s *Session) fieldViewLocked(field schema.Field, hidden bool) FieldView {
	value := s.answers[field.Name]
	opts := s.optionsFor(field)
	return FieldView{
		Field:       field,
		Label:       field.Label(s.locale),
		Placeholder: field.Placeholder(s.locale),
		Help:        field.Help(s.locale),
		Span:        field.Span(),
		Shape:       ShapeOf(field),
		Value:       value,
		Display:     display(field, value, opts, s.locale),
		Options:     opts,
		Error:       s.errors[field.Name],
		Hidden:      hidden,
	}
}

// display renders the current answer as text. Choice fields show option
// labels and fall back to the placeholder when nothing is selected.
func display(field schema.Field, value any, opts []schema.FieldOption, l locale.Locale) string {
	if validation.IsEmpty(value) {
		if ShapeOf(field) == ShapeBool {
			return l.Pick("No", "لا")
		}
		return field.Placeholder(l)
	}

	switch v := value.(type) {
	case bool:
		return l.Pick("Yes", "نعم")
	case []string:
		labels := make([]string, 0, len(v))
		for _, item := range v {
			labels = append(labels, optionLabel(opts, item, l))
		}
		return strings.Join(labels, ", ")
	case string:
		switch field.Type {
		case schema.FieldDate:
			return DisplayDate(v)
		case schema.FieldRadio, schema.FieldSelect:
			return optionLabel(opts, v, l)
		}
		return v
	default:
		return validation.Stringify(v)
	}
}

func optionLabel(opts []schema.FieldOption, value string, l locale.Locale) string {
	for _, opt := range opts {
		if opt.Value == value {
			if label := opt.Label(l); label != "" {
				return label
			}
			break
		}
	}
	return value
}
