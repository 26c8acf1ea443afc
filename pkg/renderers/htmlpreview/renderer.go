// Package htmlpreview renders a form session as a static HTML page. It backs
// the builder's live preview and the preview endpoint of the HTTP server.
package htmlpreview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/render/template"
	"github.com/goliatone/go-formengine/pkg/render/template/pongo"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Name is the registry name of the renderer.
const Name = "html-preview"

// Option configures the renderer.
type Option func(*Renderer)

// WithEngine replaces the embedded pongo2 templates with another engine.
func WithEngine(engine template.Engine) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithThemeSelector resolves theme tokens and assets per render.
func WithThemeSelector(selector ThemeSelector, name, variant string) Option {
	return func(r *Renderer) {
		r.selector = selector
		r.themeName = name
		r.themeVariant = variant
	}
}

// WithWidgetRegistry overrides widget selection.
func WithWidgetRegistry(reg *widgets.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.widgets = reg
		}
	}
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// Renderer produces a full HTML document for a session.
type Renderer struct {
	engine       template.Engine
	selector     ThemeSelector
	themeName    string
	themeVariant string
	widgets      *widgets.Registry
	title        string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a Renderer using the embedded templates unless another
// engine is supplied.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{widgets: widgets.NewRegistry()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.engine == nil {
		engine, err := pongo.New(pongo.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("htmlpreview: init templates: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return Name }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render implements render.Renderer. Hidden fields are left out. A theme
// lookup failure is logged and the page renders unthemed.
func (r *Renderer) Render(ctx context.Context, session *render.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("htmlpreview: session is required")
	}
	logger := ctxlog.FromContext(ctx)
	l := session.Locale()

	data := map[string]any{
		"lang":         l.String(),
		"dir":          l.Dir(),
		"title":        r.titleFor(session, l),
		"mode":         string(session.Mode()),
		"readonly":     session.Mode() == render.ModePreview,
		"submit_label": submitLabel(session.Mode(), l),
		"empty_text":   l.Pick("This form has no fields yet.", "لا يحتوي هذا النموذج على حقول بعد."),
		"theme":        r.themeContext(logger),
		"sections":     r.sections(session, l),
	}

	out, err := r.engine.RenderTemplate("form", data)
	if err != nil {
		return nil, fmt.Errorf("htmlpreview: render: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) titleFor(session *render.Session, l locale.Locale) string {
	if r.title != "" {
		return r.title
	}
	if id := session.Config().ID; id != "" {
		return id
	}
	return l.Pick("Form preview", "معاينة النموذج")
}

func submitLabel(mode render.Mode, l locale.Locale) string {
	if mode == render.ModeUpdate {
		return l.Pick("Save changes", "حفظ التغييرات")
	}
	return l.Pick("Submit", "إرسال")
}

func (r *Renderer) themeContext(logger *slog.Logger) map[string]any {
	out := map[string]any{}
	if r.selector == nil {
		return out
	}
	sel, err := r.selector.Select(r.themeName, r.themeVariant)
	if err != nil {
		logger.Warn("theme selection failed", "theme", r.themeName, "variant", r.themeVariant, "error", err)
		return out
	}
	cfg := RendererConfigFrom(sel)
	if cfg == nil {
		return out
	}
	out["name"] = cfg.Theme
	out["variant"] = cfg.Variant
	out["css_vars"] = cssVarsStyle(cfg.CSSVars)
	if cfg.AssetURL != nil {
		out["stylesheet"] = cfg.AssetURL(StylesheetAsset)
	}
	return out
}

func (r *Renderer) sections(session *render.Session, l locale.Locale) []map[string]any {
	views := session.Sections()
	out := make([]map[string]any, 0, len(views))
	for _, view := range views {
		fields := make([]map[string]any, 0, len(view.Fields))
		for _, fv := range view.Fields {
			if fv.Hidden {
				continue
			}
			fields = append(fields, r.field(fv, l))
		}

		section := map[string]any{
			"order":       view.Section.Order,
			"label":       view.Label,
			"description": view.Description,
			"fields":      fields,
		}
		icon := schema.SanitizeIcon(view.Icon)
		if strings.HasPrefix(icon, "<") {
			section["icon_svg"] = icon
		} else if icon != "" {
			section["icon"] = icon
		}
		out = append(out, section)
	}
	return out
}

func (r *Renderer) field(fv render.FieldView, l locale.Locale) map[string]any {
	widget, ok := r.widgets.Resolve(fv.Field)
	if !ok {
		widget = widgets.WidgetTextInput
	}

	selected := selectedValues(fv.Value)
	opts := make([]map[string]any, 0, len(fv.Options))
	for _, opt := range fv.Options {
		opts = append(opts, map[string]any{
			"value":    opt.Value,
			"label":    optionText(opt, l),
			"selected": selected[opt.Value],
		})
	}

	out := map[string]any{
		"name":        fv.Field.Name,
		"label":       fv.Label,
		"placeholder": fv.Placeholder,
		"help":        schema.SanitizeHelp(fv.Help),
		"widget":      widget,
		"input_type":  widgets.InputKind(fv.Field.Type),
		"span":        fv.Span,
		"required":    fv.Field.Required,
		"error":       fv.Error,
		"options":     opts,
		"value":       "",
	}

	switch v := fv.Value.(type) {
	case string:
		out["value"] = v
	case bool:
		out["checked"] = v
	case render.ImageValue:
		if !v.Removed && v.URL != "" {
			out["image_url"] = v.URL
		}
	}
	if fv.Field.Min != nil {
		out["min"] = *fv.Field.Min
	}
	if fv.Field.Max != nil {
		out["max"] = *fv.Field.Max
	}
	return out
}

func optionText(opt schema.FieldOption, l locale.Locale) string {
	if label := opt.Label(l); label != "" {
		return label
	}
	return opt.Value
}

func selectedValues(value any) map[string]bool {
	out := map[string]bool{}
	switch v := value.(type) {
	case []string:
		for _, item := range v {
			out[item] = true
		}
	case string:
		if v != "" {
			out[v] = true
		}
	default:
		if s := validation.Stringify(v); s != "" && v != nil {
			out[s] = true
		}
	}
	return out
}
