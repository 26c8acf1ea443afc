// Package loader reads form documents from local files, fs.FS entries and
// the form endpoint.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// MaxDocumentBytes caps how much of a single form document is read.
const MaxDocumentBytes = 4 << 20

var (
	ErrNoSource      = errors.New("loader: source is nil")
	ErrEmptyLocation = errors.New("loader: location is empty")
	ErrHTTPDisabled  = errors.New("loader: http support disabled")
	ErrNoFS          = errors.New("loader: no file system configured")
	ErrTooLarge      = errors.New("loader: document too large")
)

// StatusError is returned when the endpoint answers outside 2xx.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("loader: %s answered %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

type readFunc func(ctx context.Context, location string) (io.ReadCloser, error)

// Loader implements schema.Loader with one reader per source kind.
type Loader struct {
	readers map[schema.SourceKind]readFunc
	client  *http.Client
	headers http.Header
}

var _ schema.Loader = (*Loader)(nil)

// New builds a Loader. HTTP sources are only served when a client is given
// or AllowHTTPFallback is set.
func New(options schema.LoaderOptions) *Loader {
	l := &Loader{headers: make(http.Header, len(options.Headers))}
	for key, value := range options.Headers {
		if value = strings.TrimSpace(value); value != "" {
			l.headers.Set(key, value)
		}
	}

	l.readers = map[schema.SourceKind]readFunc{
		schema.SourceKindFile: openFile,
		schema.SourceKindFS:   fsReader(options.FileSystem),
	}

	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		l.client = &clone
	case options.AllowHTTPFallback:
		l.client = &http.Client{Timeout: options.RequestTimeout}
	}
	if l.client != nil {
		l.readers[schema.SourceKindURL] = l.get
	}
	return l
}

// Load reads src and wraps the bytes in a schema.Document.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, ErrNoSource
	}
	location := strings.TrimSpace(src.Location())
	if location == "" {
		return schema.Document{}, ErrEmptyLocation
	}
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}

	read, ok := l.readers[src.Kind()]
	if !ok {
		if src.Kind() == schema.SourceKindURL {
			return schema.Document{}, ErrHTTPDisabled
		}
		return schema.Document{}, fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}

	rc, err := read(ctx, location)
	if err != nil {
		return schema.Document{}, err
	}
	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(rc, MaxDocumentBytes+1))
	if err != nil {
		return schema.Document{}, fmt.Errorf("loader: read %s: %w", location, err)
	}
	if len(data) > MaxDocumentBytes {
		return schema.Document{}, fmt.Errorf("%w: %s", ErrTooLarge, location)
	}
	return schema.NewDocument(src, data)
}

func openFile(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(filepath.Clean(path))
}

func fsReader(files fs.FS) readFunc {
	return func(_ context.Context, name string) (io.ReadCloser, error) {
		if files == nil {
			return nil, ErrNoFS
		}
		return files.Open(strings.TrimPrefix(name, "/"))
	}
}

func (l *Loader) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")
	for key, values := range l.headers {
		req.Header[key] = values
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}
	return resp.Body, nil
}
