// Package tui fills a form session from the terminal. Each visible field is
// prompted in section order through a PromptDriver; fields revealed by
// earlier answers are picked up as the walk proceeds.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Name is the registry name of the renderer.
const Name = "tui"

// removeImage is typed at an image prompt to clear the current image.
const removeImage = "-"

// Renderer implements render.Renderer for terminal-driven sessions.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	readFile     FileReader
	maxAttempts  int
	theme        Theme
	widgets      *widgets.Registry
	logger       *slog.Logger
	strip        *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		readFile:     defaultReadFile,
		widgets:      widgets.NewRegistry(),
		strip:        bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts every visible field, stores the answers in the session and
// returns the resulting payload in the configured output format. It does not
// submit.
func (r *Renderer) Render(ctx context.Context, session *render.Session) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("tui: session is required")
	}

	logger := r.loggerFor(ctx)
	for _, field := range session.Config().Fields() {
		view, ok := fieldView(session, field.Name)
		if !ok || view.Hidden {
			continue
		}
		if err := r.promptField(ctx, session, view); err != nil {
			if errors.Is(err, ErrNoOptions) && !view.Field.Required {
				logger.Warn("skipping field without options", "field", field.Name)
				continue
			}
			return nil, err
		}
	}

	return r.serialize(session)
}

func (r *Renderer) promptField(ctx context.Context, session *render.Session, view render.FieldView) error {
	l := session.Locale()
	for attempt := 1; ; attempt++ {
		problem, err := r.ask(ctx, session, view)
		if err != nil {
			return err
		}
		if problem == "" {
			value, _ := session.Value(view.Field.Name)
			problem = validation.Validate(view.Field, value, l)
		}
		if problem == "" {
			return nil
		}

		_ = r.driver.Notify(ctx, r.theme.ErrorPrefix+problem)
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return fmt.Errorf("tui: %s: %s", view.Field.Name, problem)
		}
		if refreshed, ok := fieldView(session, view.Field.Name); ok {
			view = refreshed
		}
	}
}

// ask runs one prompt. A non-empty problem is an input the session rejected;
// err is a driver failure and ends the walk.
func (r *Renderer) ask(ctx context.Context, session *render.Session, view render.FieldView) (string, error) {
	widget, ok := r.widgets.Resolve(view.Field)
	if !ok {
		widget = widgets.WidgetTextInput
	}
	name := view.Field.Name
	l := session.Locale()

	switch widget {
	case widgets.WidgetToggle:
		current, _ := view.Value.(bool)
		ans, err := r.driver.Ask(ctx, Prompt{Kind: PromptConfirm, Message: r.message(view), Help: r.help(view), Yes: current})
		if err != nil {
			return "", err
		}
		return setProblem(session.Set(name, ans.Yes)), nil

	case widgets.WidgetSelect, widgets.WidgetRadioGroup:
		return r.askOne(ctx, session, view)

	case widgets.WidgetCheckboxGroup, widgets.WidgetMultiList:
		return r.askMany(ctx, session, view)

	case widgets.WidgetTextarea:
		ans, err := r.driver.Ask(ctx, Prompt{
			Kind:    PromptMultiline,
			Message: r.message(view),
			Help:    r.help(view),
			Default: validation.Stringify(view.Value),
		})
		if err != nil {
			return "", err
		}
		return setProblem(session.Set(name, ans.Text)), nil

	case widgets.WidgetDatePicker:
		current, _ := view.Value.(string)
		ans, err := r.driver.Ask(ctx, Prompt{
			Message: r.message(view),
			Help:    joinHelp(r.help(view), l.Pick("Format: dd/mm/yyyy", "الصيغة: يوم/شهر/سنة")),
			Default: render.DisplayDate(current),
		})
		if err != nil {
			return "", err
		}
		if err := session.Set(name, ans.Text); err != nil {
			return l.Pick("Enter a valid date", "أدخل تاريخًا صالحًا"), nil
		}
		return "", nil

	case widgets.WidgetImageUpload:
		return r.askImage(ctx, session, view)

	default:
		ans, err := r.driver.Ask(ctx, Prompt{Message: r.message(view), Help: r.help(view), Default: validation.Stringify(view.Value)})
		if err != nil {
			return "", err
		}
		return setProblem(session.Set(name, ans.Text)), nil
	}
}

func (r *Renderer) askOne(ctx context.Context, session *render.Session, view render.FieldView) (string, error) {
	l := session.Locale()
	values, labels := optionLists(view.Options, l)
	if len(values) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoOptions, view.Field.Name)
	}
	if !view.Field.Required {
		none := view.Placeholder
		if none == "" {
			none = l.Pick("(none)", "(لا شيء)")
		}
		values = append([]string{""}, values...)
		labels = append([]string{none}, labels...)
	}

	current := validation.Stringify(view.Value)
	ans, err := r.driver.Ask(ctx, Prompt{
		Kind:     PromptChoice,
		Message:  r.message(view),
		Help:     r.help(view),
		Choices:  labels,
		Selected: positions(values, []string{current}),
	})
	if err != nil {
		return "", err
	}
	if len(ans.Picked) != 1 || !inRange(ans.Picked[0], labels) {
		return "", fmt.Errorf("tui: %s: selection %v out of range", view.Field.Name, ans.Picked)
	}
	return setProblem(session.Set(view.Field.Name, values[ans.Picked[0]])), nil
}

func (r *Renderer) askMany(ctx context.Context, session *render.Session, view render.FieldView) (string, error) {
	values, labels := optionLists(view.Options, session.Locale())
	if len(values) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoOptions, view.Field.Name)
	}
	current, _ := view.Value.([]string)

	ans, err := r.driver.Ask(ctx, Prompt{
		Kind:     PromptChoices,
		Message:  r.message(view),
		Help:     r.help(view),
		Choices:  labels,
		Selected: positions(values, current),
	})
	if err != nil {
		return "", err
	}
	return setProblem(session.Set(view.Field.Name, pick(values, ans.Picked))), nil
}

func (r *Renderer) askImage(ctx context.Context, session *render.Session, view render.FieldView) (string, error) {
	l := session.Locale()
	current, _ := view.Value.(render.ImageValue)
	help := l.Pick("Path to an image file. Leave blank to keep the current image, '-' to remove it.",
		"مسار ملف الصورة. اتركه فارغًا للإبقاء على الصورة الحالية، أو '-' لإزالتها.")
	if current.URL != "" && !current.Removed {
		help = joinHelp(help, current.URL)
	}

	ans, err := r.driver.Ask(ctx, Prompt{Message: r.message(view), Help: joinHelp(r.help(view), help)})
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(ans.Text)
	switch path {
	case "":
		return "", nil
	case removeImage:
		return setProblem(session.RemoveImage(view.Field.Name)), nil
	}

	data, err := r.readFile(path)
	if err != nil {
		return l.Pick("Could not read the image file", "تعذرت قراءة ملف الصورة"), nil
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return l.Pick("The file is not an image", "الملف ليس صورة"), nil
	}
	return setProblem(session.SetImage(view.Field.Name, render.Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	})), nil
}

func (r *Renderer) serialize(session *render.Session) ([]byte, error) {
	var fields []schema.Field
	for _, section := range session.Sections() {
		for _, view := range section.Fields {
			if !view.Hidden {
				fields = append(fields, view.Field)
			}
		}
	}
	payload := render.BuildPayload(fields, session.Answers())

	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(formEncode(payload)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(payload)), nil
	default:
		return json.Marshal(payload.Values)
	}
}

func (r *Renderer) message(view render.FieldView) string {
	if view.Field.Required {
		return view.Label + " *"
	}
	return view.Label
}

// help renders help text as plain terminal text.
func (r *Renderer) help(view render.FieldView) string {
	if view.Help == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(r.strip.Sanitize(view.Help)))
}

func (r *Renderer) loggerFor(ctx context.Context) *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return ctxlog.FromContext(ctx)
}

func fieldView(session *render.Session, name string) (render.FieldView, bool) {
	for _, section := range session.Sections() {
		for _, view := range section.Fields {
			if view.Field.Name == name {
				return view, true
			}
		}
	}
	return render.FieldView{}, false
}

func optionLists(opts []schema.FieldOption, l locale.Locale) (values, labels []string) {
	for _, opt := range opts {
		label := opt.Label(l)
		if label == "" {
			label = opt.Value
		}
		values = append(values, opt.Value)
		labels = append(labels, label)
	}
	return values, labels
}

func setProblem(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func joinHelp(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

func formEncode(p render.Payload) string {
	values := url.Values{}
	for _, part := range p.Parts {
		if part.File != nil {
			values.Add(part.Name, part.File.Filename)
			continue
		}
		values.Add(part.Name, part.Value)
	}
	return values.Encode()
}

func prettyPrint(p render.Payload) string {
	var b strings.Builder
	for _, part := range p.Parts {
		if part.File != nil {
			fmt.Fprintf(&b, "%s=@%s (%d bytes)\n", part.Name, part.File.Filename, len(part.File.Data))
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", part.Name, part.Value)
	}
	return b.String()
}
