package optionsource

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// EmptySearchMode decides what an empty query returns.
type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

const (
	defaultRoute = "/options"
	defaultLimit = 200
	maxLimit     = 1000
)

// GuardFunc authorizes a request. A non-nil error rejects it; errors
// implementing HTTPError pick the status code.
type GuardFunc func(r *http.Request) error

// QueryParams names the query string parameters the handler reads.
type QueryParams struct {
	Search string
	Limit  string
}

// Limits bound how many rows one response carries.
type Limits struct {
	Default int
	Max     int
}

// Config describes one served option list.
type Config struct {
	Route string
	Query QueryParams
	Limit Limits
	Empty EmptySearchMode
	Guard GuardFunc
	Items []schema.FieldOption
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Route: defaultRoute,
		Query: QueryParams{Search: "q", Limit: "limit"},
		Limit: Limits{Default: defaultLimit, Max: maxLimit},
		Empty: EmptySearchTop,
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg.normalized()
}

// normalized fills zero values with defaults and copies Items so callers
// cannot mutate a served list.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.Route) == "" {
		c.Route = d.Route
	}
	if c.Query.Search == "" {
		c.Query.Search = d.Query.Search
	}
	if c.Query.Limit == "" {
		c.Query.Limit = d.Query.Limit
	}
	if c.Limit.Default <= 0 {
		c.Limit.Default = d.Limit.Default
	}
	if c.Limit.Max <= 0 {
		c.Limit.Max = d.Limit.Max
	}
	if c.Empty == "" {
		c.Empty = d.Empty
	}
	if c.Items != nil {
		c.Items = append([]schema.FieldOption(nil), c.Items...)
	}
	return c
}

// clamp resolves a requested row count. Zero means the default; negative
// values return nothing.
func (c Config) clamp(requested int) int {
	switch {
	case requested < 0:
		return 0
	case requested == 0:
		requested = c.Limit.Default
	}
	return min(requested, c.Limit.Max)
}

// WithRoutePath sets the route mounted under the base path.
func WithRoutePath(route string) Option {
	return func(c *Config) { c.Route = route }
}

// WithQueryParams renames the search and limit parameters. Empty names keep
// the defaults.
func WithQueryParams(search, limit string) Option {
	return func(c *Config) {
		c.Query = QueryParams{Search: search, Limit: limit}
	}
}

func WithDefaultLimit(limit int) Option {
	return func(c *Config) { c.Limit.Default = limit }
}

func WithMaxLimit(limit int) Option {
	return func(c *Config) { c.Limit.Max = limit }
}

func WithEmptySearchMode(mode EmptySearchMode) Option {
	return func(c *Config) { c.Empty = mode }
}

func WithGuard(guard GuardFunc) Option {
	return func(c *Config) { c.Guard = guard }
}

// WithItems sets the served list. Order is preserved.
func WithItems(items []schema.FieldOption) Option {
	return func(c *Config) { c.Items = items }
}
