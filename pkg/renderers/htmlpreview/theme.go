package htmlpreview

import (
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// StylesheetAsset is the manifest asset key for the preview stylesheet.
const StylesheetAsset = "preview.stylesheet"

// ThemeSelector resolves a theme and variant into a manifest selection.
type ThemeSelector interface {
	Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error)
}

// StaticSelector serves a fixed set of manifests keyed by name. An empty name
// selects the first manifest registered.
type StaticSelector struct {
	manifests map[string]*theme.Manifest
	first     string
}

// NewStaticSelector builds a selector over manifests.
func NewStaticSelector(manifests ...*theme.Manifest) *StaticSelector {
	s := &StaticSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, m := range manifests {
		if m == nil || m.Name == "" {
			continue
		}
		if s.first == "" {
			s.first = m.Name
		}
		s.manifests[m.Name] = m
	}
	return s
}

// Select implements ThemeSelector.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = s.first
	}
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("htmlpreview: theme %q not found", name)
	}
	if variant != "" {
		if _, ok := m.Variants[variant]; !ok {
			variant = ""
		}
	}
	return &theme.Selection{Theme: m.Name, Variant: variant, Manifest: m}, nil
}

// RendererConfigFrom flattens a selection into the tokens, CSS variables,
// template overrides and asset resolver a renderer needs. Variant values
// override the base manifest.
func RendererConfigFrom(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	m := sel.Manifest
	variant, hasVariant := m.Variants[sel.Variant]

	tokens := merge(m.Tokens, nil)
	partials := merge(m.Templates, nil)
	files := merge(m.Assets.Files, nil)
	prefix := m.Assets.Prefix
	if hasVariant {
		tokens = merge(tokens, variant.Tokens)
		partials = merge(partials, variant.Templates)
		files = merge(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + path.Clean(file)
		},
	}
}

func merge(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString("; ")
	}
	return strings.TrimSpace(b.String())
}
