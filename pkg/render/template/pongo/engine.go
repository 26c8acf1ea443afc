// Package pongo implements template.Extensible with pongo2
// (Django-style templates).
package pongo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formengine/pkg/render/template"
)

// ErrNoTemplates is returned by New when no template source is configured.
var ErrNoTemplates = errors.New("pongo: no template source configured")

// Option configures the engine before construction.
type Option func(*Engine) error

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(e *Engine) error {
		if dir = strings.TrimSpace(dir); dir == "" {
			return nil
		}
		loader, err := pongo2.NewLocalFileSystemLoader(dir)
		if err != nil {
			return fmt.Errorf("pongo: template dir %q: %w", dir, err)
		}
		e.loaders = append(e.loaders, loader)
		return nil
	}
}

// WithFS loads templates from an fs.FS, typically an embed.FS.
func WithFS(files fs.FS) Option {
	return func(e *Engine) error {
		if files != nil {
			e.loaders = append(e.loaders, pongo2.NewFSLoader(files))
		}
		return nil
	}
}

// WithExtension overrides the ".tpl" suffix appended to template names.
func WithExtension(ext string) Option {
	return func(e *Engine) error {
		if ext = strings.TrimSpace(ext); ext != "" {
			e.ext = "." + strings.TrimPrefix(ext, ".")
		}
		return nil
	}
}

// WithGlobalData seeds values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(e *Engine) error {
		return e.GlobalContext(data)
	}
}

// Engine renders named templates from a pongo2 set. Compiled templates are
// cached by path. Globals are merged under the per-call data, so call data
// wins on key clashes.
type Engine struct {
	loaders []pongo2.TemplateLoader
	set     *pongo2.TemplateSet
	ext     string
	cache   sync.Map

	mu      sync.RWMutex
	globals pongo2.Context
}

var _ template.Extensible = (*Engine)(nil)

// New builds an Engine from at least one template source.
func New(options ...Option) (*Engine, error) {
	e := &Engine{ext: ".tpl", globals: pongo2.Context{}}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if len(e.loaders) == 0 {
		return nil, ErrNoTemplates
	}
	e.set = pongo2.NewSet("formengine", e.loaders...)
	builtinFilters.Do(registerBuiltinFilters)
	return e, nil
}

// RenderTemplate renders name, appending the extension when missing.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("pongo: engine not initialised")
	}
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}

	compiled, ok := e.cache.Load(name)
	if !ok {
		tpl, err := e.set.FromFile(name)
		if err != nil {
			return "", fmt.Errorf("pongo: load %q: %w", name, err)
		}
		compiled, _ = e.cache.LoadOrStore(name, tpl)
	}
	return e.execute(compiled.(*pongo2.Template), name, data, out)
}

// RenderString compiles and renders source without caching it.
func (e *Engine) RenderString(source string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("pongo: engine not initialised")
	}
	tpl, err := e.set.FromString(source)
	if err != nil {
		return "", fmt.Errorf("pongo: parse inline template: %w", err)
	}
	return e.execute(tpl, "inline", data, out)
}

func (e *Engine) execute(tpl *pongo2.Template, name string, data any, out []io.Writer) (string, error) {
	local, err := asContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: %s data: %w", name, err)
	}

	e.mu.RLock()
	ctx := maps.Clone(e.globals)
	e.mu.RUnlock()
	maps.Copy(ctx, local)

	rendered, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("pongo: execute %q: %w", name, err)
	}
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// RegisterFilter adds a filter. pongo2 filters are process-wide, so a name
// can only be registered once.
func (e *Engine) RegisterFilter(name string, fn template.FilterFunc) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("pongo: filter needs a name and a function")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already registered", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values every render sees.
func (e *Engine) GlobalContext(data any) error {
	if e == nil {
		return errors.New("pongo: engine not initialised")
	}
	globals, err := asContext(data)
	if err != nil {
		return fmt.Errorf("pongo: global data: %w", err)
	}
	e.mu.Lock()
	maps.Copy(e.globals, globals)
	e.mu.Unlock()
	return nil
}

// asContext accepts maps directly, so functions in them stay callable.
// Other values are bridged through JSON and expose their json names.
func asContext(data any) (pongo2.Context, error) {
	out := pongo2.Context{}
	switch v := data.(type) {
	case nil:
		return out, nil
	case pongo2.Context:
		maps.Copy(out, v)
		return out, nil
	case map[string]any:
		for key, value := range v {
			if key = strings.TrimSpace(key); key != "" {
				out[key] = value
			}
		}
		return out, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%T is not an object: %w", data, err)
	}
	return out, nil
}

var builtinFilters sync.Once

func registerBuiltinFilters() {
	filters := map[string]pongo2.FilterFunction{
		"trim": func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(strings.TrimSpace(in.String())), nil
		},
		// colspan maps a 12-column span onto a grid class; zero means half.
		"colspan": func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			span := in.Integer()
			if span <= 0 {
				span = 6
			}
			return pongo2.AsValue(fmt.Sprintf("col-span-%d", span)), nil
		},
	}
	for name, fn := range filters {
		if !pongo2.FilterExists(name) {
			_ = pongo2.RegisterFilter(name, fn)
		}
	}
}
