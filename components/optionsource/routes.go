package optionsource

import (
	"errors"
	"net/http"
	"path"
	"strings"
)

// Mux is satisfied by *http.ServeMux and chi.Router.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath joins basePath and the configured route.
func MountPath(basePath string, opts ...Option) string {
	return joinRoute(basePath, NewConfig(opts...).Route)
}

// RegisterRoutes mounts a handler for opts under basePath and returns the
// registered pattern.
func RegisterRoutes(mux Mux, basePath string, opts ...Option) (string, error) {
	return Mount(mux, basePath, NewConfig(opts...))
}

// Mount registers a handler for cfg under basePath.
func Mount(mux Mux, basePath string, cfg Config) (string, error) {
	if mux == nil {
		return "", errors.New("optionsource: missing mux")
	}
	cfg = cfg.normalized()
	pattern := joinRoute(basePath, cfg.Route)
	mux.Handle(pattern, HandlerFor(cfg))
	return pattern, nil
}

func joinRoute(basePath, route string) string {
	joined := path.Join("/", strings.TrimSpace(basePath), strings.TrimSpace(route))
	if joined == "." {
		return "/"
	}
	return joined
}
