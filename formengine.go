// Package formengine is the entry point for loading bilingual form
// definitions and presenting them through a session.
//
// A typical flow loads a FormConfig, opens a session and hands it to a host:
//
//	cfg, err := formengine.LoadForm(ctx, "forms/contact.yaml")
//	session := formengine.NewSession(cfg, render.WithLocale(locale.Arabic))
//	defer session.Close()
//	html, err := formengine.PreviewHTML(ctx, session)
package formengine

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/pkg/builder"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/htmlpreview"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// DefaultRequestTimeout bounds remote document fetches made by LoadForm.
const DefaultRequestTimeout = 10 * time.Second

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options schema.LoaderOptions) schema.Loader {
	return loader.New(options)
}

// LoadForm reads a form document from a file path or an http(s) URL and
// normalizes it. Failures are reported as *schema.LoadError.
func LoadForm(ctx context.Context, location string) (schema.FormConfig, error) {
	src, err := schema.ParseSource(location)
	if err != nil {
		return schema.FormConfig{}, &schema.LoadError{Location: location, Err: err}
	}
	l := NewLoader(schema.LoaderOptions{
		AllowHTTPFallback: true,
		RequestTimeout:    DefaultRequestTimeout,
	})
	cfg, err := schema.LoadFormConfig(ctx, l, src)
	if err != nil {
		return schema.FormConfig{}, err
	}
	return schema.Normalize(cfg), nil
}

// LoadFormFS reads a form document from files.
func LoadFormFS(ctx context.Context, files fs.FS, name string) (schema.FormConfig, error) {
	cfg, err := schema.LoadFormConfig(ctx, NewLoader(schema.LoaderOptions{FileSystem: files}), schema.SourceFromFS(name))
	if err != nil {
		return schema.FormConfig{}, err
	}
	return schema.Normalize(cfg), nil
}

// NewSession opens a viewer session over cfg.
func NewSession(cfg schema.FormConfig, options ...render.Option) *render.Session {
	return render.NewSession(cfg, options...)
}

// NewEditor returns a form builder.
func NewEditor(options ...builder.Option) *builder.Editor {
	return builder.New(options...)
}

// PreviewHTML renders session as a standalone HTML document with the embedded
// templates.
func PreviewHTML(ctx context.Context, session *render.Session, options ...htmlpreview.Option) ([]byte, error) {
	r, err := htmlpreview.New(options...)
	if err != nil {
		return nil, fmt.Errorf("formengine: preview renderer: %w", err)
	}
	return r.Render(ctx, session)
}

// EmbeddedTemplates exposes the built-in preview templates so callers can
// reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return htmlpreview.TemplatesFS()
}
