package optionsource

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Component bundles a Config with its handler and routing helpers.
type Component struct {
	cfg Config
}

// New builds a component from opts.
func New(opts ...Option) *Component {
	return &Component{cfg: NewConfig(opts...)}
}

// Config returns a copy of the component configuration. A nil component
// reports the defaults.
func (c *Component) Config() Config {
	if c == nil {
		return DefaultConfig()
	}
	return c.cfg.normalized()
}

// Handler serves the component list.
func (c *Component) Handler() http.Handler {
	return HandlerFor(c.Config())
}

// RegisterRoutes mounts the component under basePath.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	return Mount(mux, basePath, c.Config())
}

// APIData returns the apiData block a field uses to read this component once
// it is mounted under basePath on origin (for example
// "https://forms.example.com").
func (c *Component) APIData(origin, basePath string) schema.APIData {
	return schema.APIData{
		URL:     strings.TrimRight(strings.TrimSpace(origin), "/") + joinRoute(basePath, c.Config().Route),
		Mapping: schema.Mapping{Value: "value", LabelEN: "label_en", LabelAR: "label_ar"},
	}
}
