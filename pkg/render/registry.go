package render

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownRenderer is wrapped by Lookup when no host matches.
var ErrUnknownRenderer = errors.New("render: unknown renderer")

// Registry keeps the hosts a binary can present a session with. The first
// registered host is the default until SetDefault picks another.
type Registry struct {
	mu       sync.RWMutex
	hosts    map[string]Renderer
	fallback string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hosts: make(map[string]Renderer)}
}

// Register adds a host under its Name. Names are unique.
func (r *Registry) Register(host Renderer) error {
	if host == nil {
		return errors.New("render: renderer is required")
	}
	name := strings.TrimSpace(host.Name())
	if name == "" {
		return errors.New("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.hosts[name]; taken {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.hosts[name] = host
	if r.fallback == "" {
		r.fallback = name
	}
	return nil
}

// SetDefault makes a registered host the one Lookup("") returns.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hosts[name]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownRenderer, name)
	}
	r.fallback = name
	return nil
}

// Lookup returns the named host, or the default one when name is empty.
func (r *Registry) Lookup(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.fallback
	}
	host, ok := r.hosts[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownRenderer, name, strings.Join(r.sortedLocked(), ", "))
	}
	return host, nil
}

// Negotiate picks the first host whose content type appears in an Accept
// header, falling back to the default host. Quality values are ignored;
// listing order wins.
func (r *Registry) Negotiate(accept string) (Renderer, error) {
	r.mu.RLock()
	names := r.sortedLocked()
	r.mu.RUnlock()

	for _, part := range strings.Split(accept, ",") {
		want, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || want == "*/*" {
			continue
		}
		for _, name := range names {
			host, _ := r.Lookup(name)
			have, _, err := mime.ParseMediaType(host.ContentType())
			if err == nil && have == want {
				return host, nil
			}
		}
	}
	return r.Lookup("")
}

// Names lists registered hosts, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Registry) sortedLocked() []string {
	out := make([]string, 0, len(r.hosts))
	for name := range r.hosts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
