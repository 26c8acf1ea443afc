// Package options resolves the choice list of a field, either from its
// static items or from the remote source described by apiData.
package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/schema"
)

var (
	// ErrNotArray is returned when a remote source answers with anything
	// other than a JSON array.
	ErrNotArray = errors.New("options: response is not a JSON array")
	// ErrNoFetcher is recorded for remote fields when ResolveAll has no
	// fetcher to call.
	ErrNoFetcher = errors.New("options: no fetcher for remote source")
)

// Fetcher resolves the options of a single field.
type Fetcher interface {
	Resolve(ctx context.Context, field schema.Field) ([]schema.FieldOption, error)
}

// Resolver fetches remote option lists over HTTP. It is safe for concurrent
// use.
type Resolver struct {
	client *http.Client
	logger *slog.Logger
	cache  bool

	mu      sync.Mutex
	entries map[string][]schema.FieldOption
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used for remote sources.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithCache keeps successful responses per url+header so repeated loads of
// the same form do not refetch.
func WithCache(enabled bool) Option {
	return func(r *Resolver) {
		r.cache = enabled
	}
}

// NewResolver constructs a Resolver using http.DefaultClient unless
// overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:  http.DefaultClient,
		entries: make(map[string][]schema.FieldOption),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the options for field. Fields without apiData.url get their
// static items back unchanged.
func (r *Resolver) Resolve(ctx context.Context, field schema.Field) ([]schema.FieldOption, error) {
	if !field.HasRemoteOptions() {
		return cloneOptions(field.Items), nil
	}

	api := *field.APIData
	key := cacheKeyFor(api)
	if r.cache {
		r.mu.Lock()
		cached, ok := r.entries[key]
		r.mu.Unlock()
		if ok {
			return cloneOptions(cached), nil
		}
	}

	rows, err := r.fetch(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("options: field %q: %w", field.Name, err)
	}
	out := MapRows(rows, api.Mapping)

	if r.cache {
		r.mu.Lock()
		r.entries[key] = out
		r.mu.Unlock()
	}
	return cloneOptions(out), nil
}

// Result holds the resolved option lists for a form keyed by field name.
type Result struct {
	Options  map[string][]schema.FieldOption
	Failures map[string]error
}

// ResolveAll resolves every choice field of cfg. Remote fields are fetched
// concurrently, one request per field. A failing field ends up with no
// options and an entry in Failures; other fields are unaffected. Static items
// never stand in for a remote field.
func ResolveAll(ctx context.Context, fetcher Fetcher, cfg schema.FormConfig) Result {
	res := Result{
		Options:  make(map[string][]schema.FieldOption),
		Failures: make(map[string]error),
	}
	logger := ctxlog.FromContext(ctx)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, field := range cfg.Fields() {
		if !field.Type.IsChoice() {
			continue
		}
		if !field.HasRemoteOptions() {
			res.Options[field.Name] = cloneOptions(field.Items)
			continue
		}
		if fetcher == nil {
			res.Options[field.Name] = nil
			res.Failures[field.Name] = fmt.Errorf("field %q: %w", field.Name, ErrNoFetcher)
			continue
		}

		wg.Add(1)
		go func(field schema.Field) {
			defer wg.Done()
			opts, err := fetcher.Resolve(ctx, field)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("option source failed",
					"field", field.Name,
					"url", field.APIData.URL,
					"error", err,
				)
				res.Options[field.Name] = nil
				res.Failures[field.Name] = err
				return
			}
			res.Options[field.Name] = opts
		}(field)
	}
	wg.Wait()
	return res
}

func (r *Resolver) fetch(ctx context.Context, api schema.APIData) ([]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if api.Header != "" {
		req.Header.Set("Authorization", api.Header)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	rows, ok := payload.([]any)
	if !ok {
		return nil, ErrNotArray
	}
	if r.logger != nil {
		r.logger.Debug("option source fetched", "url", api.URL, "rows", len(rows))
	}
	return rows, nil
}

// MapRows converts raw rows into options. Mapping keys that are blank fall
// back to the identically-named key ("value", "label_en", "label_ar") on the
// row. Rows that are not objects or carry no value are skipped.
func MapRows(rows []any, mapping schema.Mapping) []schema.FieldOption {
	valueKey := keyOr(mapping.Value, "value")
	enKey := keyOr(mapping.LabelEN, "label_en")
	arKey := keyOr(mapping.LabelAR, "label_ar")

	out := make([]schema.FieldOption, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}
		value, ok := pickValue(obj, valueKey)
		if !ok {
			continue
		}
		en, _ := pickValue(obj, enKey)
		ar, _ := pickValue(obj, arKey)
		out = append(out, schema.FieldOption{
			ID:      value,
			Order:   len(out),
			Value:   value,
			LabelEN: en,
			LabelAR: ar,
		})
	}
	return out
}

func keyOr(key, fallback string) string {
	if strings.TrimSpace(key) == "" {
		return fallback
	}
	return key
}

// pickValue reads a dot path from a row and stringifies scalars.
func pickValue(row map[string]any, path string) (string, bool) {
	if v, ok := row[path]; ok {
		return scalar(v)
	}
	var cur any = row
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = node[segment]; !ok {
			return "", false
		}
	}
	return scalar(cur)
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool, float64, int, int64:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

func cacheKeyFor(api schema.APIData) string {
	var b strings.Builder
	b.WriteString(api.URL)
	if api.Header != "" {
		b.WriteString(";auth=")
		b.WriteString(api.Header)
	}
	return b.String()
}

func cloneOptions(in []schema.FieldOption) []schema.FieldOption {
	if in == nil {
		return nil
	}
	out := make([]schema.FieldOption, len(in))
	copy(out, in)
	return out
}
