// Package builder edits a FormConfig in memory. Every operation returns a new
// config and leaves its input untouched; the order of every sibling list is
// reassigned to 0..n-1 after each successful change.
//
// Indexes address siblings in ascending order, the way the renderer shows
// them, not their position in the stored slice.
package builder

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/visibility/expr"
)

// Direction moves a sibling one slot towards the start or the end.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// Confirm asks the operator to approve a removal.
type Confirm func(prompt string) bool

// Option configures an Editor.
type Option func(*Editor)

// WithLocale sets the language of confirm prompts and guard alerts.
func WithLocale(l locale.Locale) Option {
	return func(e *Editor) {
		if l.Valid() {
			e.locale = l
		}
	}
}

// WithConfirm installs the removal confirmation. Without one, removals are
// approved.
func WithConfirm(fn Confirm) Option {
	return func(e *Editor) {
		e.confirm = fn
	}
}

// WithLogger sets the logger for refused operations.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Editor applies builder operations.
type Editor struct {
	locale  locale.Locale
	confirm Confirm
	logger  *slog.Logger
}

// New returns an Editor.
func New(opts ...Option) *Editor {
	e := &Editor{locale: locale.Default, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Locale reports the editor locale.
func (e *Editor) Locale() locale.Locale { return e.locale }

// AddSection appends an empty section.
func (e *Editor) AddSection(cfg schema.FormConfig) (schema.FormConfig, error) {
	out := cfg.Clone()
	sortSections(out.Sections)
	if n := len(out.Sections); n > 0 && !sectionComplete(out.Sections[n-1]) {
		return cfg, e.refuse(newGuardError(KindSection, n-1))
	}
	out.Sections = append(out.Sections, schema.Section{ID: schema.NewID()})
	reindexSections(out.Sections)
	return out, nil
}

// RemoveSection deletes the section at si once confirmed.
func (e *Editor) RemoveSection(cfg schema.FormConfig, si int) (schema.FormConfig, error) {
	out := cfg.Clone()
	sortSections(out.Sections)
	if si < 0 || si >= len(out.Sections) {
		return cfg, fmt.Errorf("%w: section %d", ErrOutOfRange, si)
	}
	if !e.approve(e.locale.Pick("Are you sure you want to delete this section?", "هل أنت متأكد من حذف هذا القسم؟")) {
		return cfg, ErrNotConfirmed
	}
	out.Sections = append(out.Sections[:si], out.Sections[si+1:]...)
	reindexSections(out.Sections)
	return out, nil
}

// MoveSection swaps the section at si with its neighbour. Moving the first
// section up or the last down returns the config unchanged.
func (e *Editor) MoveSection(cfg schema.FormConfig, si int, dir Direction) (schema.FormConfig, error) {
	out := cfg.Clone()
	sortSections(out.Sections)
	if si < 0 || si >= len(out.Sections) {
		return cfg, fmt.Errorf("%w: section %d", ErrOutOfRange, si)
	}
	to := si + int(dir)
	if to < 0 || to >= len(out.Sections) {
		return cfg.Clone(), nil
	}
	out.Sections[si], out.Sections[to] = out.Sections[to], out.Sections[si]
	reindexSections(out.Sections)
	return out, nil
}

// UpdateSection applies fn to the section at si. Fields are edited through
// the field operations; changes fn makes to them are kept as-is.
func (e *Editor) UpdateSection(cfg schema.FormConfig, si int, fn func(*schema.Section)) (schema.FormConfig, error) {
	out := cfg.Clone()
	sortSections(out.Sections)
	if si < 0 || si >= len(out.Sections) {
		return cfg, fmt.Errorf("%w: section %d", ErrOutOfRange, si)
	}
	section := &out.Sections[si]
	fn(section)
	section.Icon = schema.SanitizeIcon(section.Icon)
	reindexSections(out.Sections)
	return out, nil
}

// AddField appends a text field to the section at si.
func (e *Editor) AddField(cfg schema.FormConfig, si int) (schema.FormConfig, error) {
	out, section, err := e.section(cfg, si)
	if err != nil {
		return cfg, err
	}
	if n := len(section.Fields); n > 0 {
		name := strings.TrimSpace(section.Fields[n-1].Name)
		if name == "" {
			return cfg, e.refuse(newGuardError(KindField, n-1))
		}
		if countNamed(out, name) > 1 {
			return cfg, e.refuse(newDuplicateError(KindField, n-1))
		}
	}
	section.Fields = append(section.Fields, schema.Field{
		ID:      schema.NewID(),
		Type:    schema.FieldText,
		ColSpan: schema.DefaultColSpan,
	})
	reindexFields(section.Fields)
	return out, nil
}

// RemoveField deletes field fi of section si once confirmed.
func (e *Editor) RemoveField(cfg schema.FormConfig, si, fi int) (schema.FormConfig, error) {
	out, section, err := e.section(cfg, si)
	if err != nil {
		return cfg, err
	}
	if fi < 0 || fi >= len(section.Fields) {
		return cfg, fmt.Errorf("%w: field %d", ErrOutOfRange, fi)
	}
	if !e.approve(e.locale.Pick("Are you sure you want to delete this field?", "هل أنت متأكد من حذف هذا الحقل؟")) {
		return cfg, ErrNotConfirmed
	}
	section.Fields = append(section.Fields[:fi], section.Fields[fi+1:]...)
	reindexFields(section.Fields)
	return out, nil
}

// MoveField swaps field fi of section si with its neighbour.
func (e *Editor) MoveField(cfg schema.FormConfig, si, fi int, dir Direction) (schema.FormConfig, error) {
	out, section, err := e.section(cfg, si)
	if err != nil {
		return cfg, err
	}
	if fi < 0 || fi >= len(section.Fields) {
		return cfg, fmt.Errorf("%w: field %d", ErrOutOfRange, fi)
	}
	to := fi + int(dir)
	if to < 0 || to >= len(section.Fields) {
		return cfg.Clone(), nil
	}
	section.Fields[fi], section.Fields[to] = section.Fields[to], section.Fields[fi]
	reindexFields(section.Fields)
	return out, nil
}

// UpdateField applies fn to field fi of section si. A type change made by fn
// goes through the same reset as SetFieldType.
func (e *Editor) UpdateField(cfg schema.FormConfig, si, fi int, fn func(*schema.Field)) (schema.FormConfig, error) {
	out, section, err := e.section(cfg, si)
	if err != nil {
		return cfg, err
	}
	if fi < 0 || fi >= len(section.Fields) {
		return cfg, fmt.Errorf("%w: field %d", ErrOutOfRange, fi)
	}
	field := &section.Fields[fi]
	before := field.Type
	fn(field)
	field.Name = strings.TrimSpace(field.Name)
	if field.Type != before {
		if !field.Type.Valid() {
			return cfg, fmt.Errorf("%w: %q", ErrInvalidType, field.Type)
		}
		clearStale(field)
	}
	reindexFields(section.Fields)
	return out, nil
}

// SetFieldType changes a field's type and drops configuration the new type
// does not use: items and apiData off choice types, min/max off number.
func (e *Editor) SetFieldType(cfg schema.FormConfig, si, fi int, t schema.FieldType) (schema.FormConfig, error) {
	if !t.Valid() {
		return cfg, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return e.UpdateField(cfg, si, fi, func(f *schema.Field) { f.Type = t })
}

// AddOption appends an empty option to a choice field.
func (e *Editor) AddOption(cfg schema.FormConfig, si, fi int) (schema.FormConfig, error) {
	out, field, err := e.field(cfg, si, fi)
	if err != nil {
		return cfg, err
	}
	if n := len(field.Items); n > 0 {
		value := strings.TrimSpace(field.Items[n-1].Value)
		if value == "" {
			return cfg, e.refuse(newGuardError(KindOption, n-1))
		}
		for _, other := range field.Items[:n-1] {
			if strings.TrimSpace(other.Value) == value {
				return cfg, e.refuse(newDuplicateError(KindOption, n-1))
			}
		}
	}
	field.Items = append(field.Items, schema.FieldOption{ID: schema.NewID()})
	reindexOptions(field.Items)
	return out, nil
}

// RemoveOption deletes option oi once confirmed.
func (e *Editor) RemoveOption(cfg schema.FormConfig, si, fi, oi int) (schema.FormConfig, error) {
	out, field, err := e.field(cfg, si, fi)
	if err != nil {
		return cfg, err
	}
	if oi < 0 || oi >= len(field.Items) {
		return cfg, fmt.Errorf("%w: option %d", ErrOutOfRange, oi)
	}
	if !e.approve(e.locale.Pick("Are you sure you want to delete this option?", "هل أنت متأكد من حذف هذا الخيار؟")) {
		return cfg, ErrNotConfirmed
	}
	field.Items = append(field.Items[:oi], field.Items[oi+1:]...)
	reindexOptions(field.Items)
	return out, nil
}

// MoveOption swaps option oi with its neighbour.
func (e *Editor) MoveOption(cfg schema.FormConfig, si, fi, oi int, dir Direction) (schema.FormConfig, error) {
	out, field, err := e.field(cfg, si, fi)
	if err != nil {
		return cfg, err
	}
	if oi < 0 || oi >= len(field.Items) {
		return cfg, fmt.Errorf("%w: option %d", ErrOutOfRange, oi)
	}
	to := oi + int(dir)
	if to < 0 || to >= len(field.Items) {
		return cfg.Clone(), nil
	}
	field.Items[oi], field.Items[to] = field.Items[to], field.Items[oi]
	reindexOptions(field.Items)
	return out, nil
}

// UpdateOption applies fn to option oi.
func (e *Editor) UpdateOption(cfg schema.FormConfig, si, fi, oi int, fn func(*schema.FieldOption)) (schema.FormConfig, error) {
	out, field, err := e.field(cfg, si, fi)
	if err != nil {
		return cfg, err
	}
	if oi < 0 || oi >= len(field.Items) {
		return cfg, fmt.Errorf("%w: option %d", ErrOutOfRange, oi)
	}
	fn(&field.Items[oi])
	field.Items[oi].Value = strings.TrimSpace(field.Items[oi].Value)
	reindexOptions(field.Items)
	return out, nil
}

// Preview returns a read-only session over cfg in the editor locale. The
// caller owns the session and must Close it.
func (e *Editor) Preview(cfg schema.FormConfig, opts ...render.Option) *render.Session {
	all := make([]render.Option, 0, len(opts)+2)
	all = append(all, render.WithLocale(e.locale))
	all = append(all, opts...)
	all = append(all, render.WithMode(render.ModePreview))
	return render.NewSession(cfg, all...)
}

// Check lints cfg and parses every visibleWhen rule.
func (e *Editor) Check(cfg schema.FormConfig) schema.Issues {
	issues := schema.Lint(cfg)
	for i, section := range cfg.Sections {
		for j, field := range section.Fields {
			if strings.TrimSpace(field.VisibleWhen) == "" {
				continue
			}
			if err := expr.Check(field.VisibleWhen); err != nil {
				issues = append(issues, schema.Issue{
					Path:    fmt.Sprintf("sections[%d].Fields[%d].visibleWhen", i, j),
					Field:   field.Name,
					Message: err.Error(),
				})
			}
		}
	}
	return issues
}

func (e *Editor) section(cfg schema.FormConfig, si int) (schema.FormConfig, *schema.Section, error) {
	out := cfg.Clone()
	sortSections(out.Sections)
	if si < 0 || si >= len(out.Sections) {
		return cfg, nil, fmt.Errorf("%w: section %d", ErrOutOfRange, si)
	}
	section := &out.Sections[si]
	sortFields(section.Fields)
	return out, section, nil
}

func (e *Editor) field(cfg schema.FormConfig, si, fi int) (schema.FormConfig, *schema.Field, error) {
	out, section, err := e.section(cfg, si)
	if err != nil {
		return cfg, nil, err
	}
	if fi < 0 || fi >= len(section.Fields) {
		return cfg, nil, fmt.Errorf("%w: field %d", ErrOutOfRange, fi)
	}
	field := &section.Fields[fi]
	if !field.Type.IsChoice() {
		return cfg, nil, fmt.Errorf("%w: %q", ErrNotChoice, field.Type)
	}
	sortOptions(field.Items)
	return out, field, nil
}

func (e *Editor) approve(prompt string) bool {
	if e.confirm == nil {
		return true
	}
	return e.confirm(prompt)
}

func (e *Editor) refuse(err *GuardError) error {
	e.logger.Info("builder append refused", "kind", err.Kind, "index", err.Index, "reason", err.Reason)
	return err
}

// countNamed counts fields named name across every section.
func countNamed(cfg schema.FormConfig, name string) int {
	n := 0
	for _, section := range cfg.Sections {
		for _, field := range section.Fields {
			if strings.TrimSpace(field.Name) == name {
				n++
			}
		}
	}
	return n
}

func sectionComplete(s schema.Section) bool {
	return strings.TrimSpace(s.LabelEN) != "" || strings.TrimSpace(s.LabelAR) != ""
}

func clearStale(f *schema.Field) {
	if !f.Type.IsChoice() {
		f.Items = nil
		f.APIData = nil
	}
	if !f.Type.AcceptsBounds() {
		f.Min, f.Max = nil, nil
	}
}

func sortSections(s []schema.Section) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Order < s[j].Order })
}

func sortFields(f []schema.Field) {
	sort.SliceStable(f, func(i, j int) bool { return f[i].Order < f[j].Order })
}

func sortOptions(o []schema.FieldOption) {
	sort.SliceStable(o, func(i, j int) bool { return o[i].Order < o[j].Order })
}

func reindexSections(s []schema.Section) {
	for i := range s {
		s[i].Order = i
	}
}

func reindexFields(f []schema.Field) {
	for i := range f {
		f[i].Order = i
	}
}

func reindexOptions(o []schema.FieldOption) {
	for i := range o {
		o[i].Order = i
	}
}
