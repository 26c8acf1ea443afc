package schema

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader fetches a form document from a Source.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configure the built-in loader in internal/loader.
type LoaderOptions struct {
	FileSystem        fs.FS
	HTTPClient        *http.Client
	AllowHTTPFallback bool
	RequestTimeout    time.Duration
	// Headers are attached to every HTTP request (for example X-WP-Nonce).
	Headers map[string]string
}

// LoadFormConfig loads src and decodes it, wrapping every failure in a
// LoadError.
func LoadFormConfig(ctx context.Context, loader Loader, src Source) (FormConfig, error) {
	location := ""
	if src != nil {
		location = src.Location()
	}
	if loader == nil {
		return FormConfig{}, &LoadError{Location: location, Err: errLoaderMissing}
	}
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return FormConfig{}, &LoadError{Location: location, Err: err}
	}
	return doc.FormConfig()
}
