package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var svgShapes = []string{"path", "circle", "rect", "line", "polyline", "polygon"}

var iconPolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements(append([]string{"svg", "g", "title"}, svgShapes...)...)
	p.AllowAttrs("xmlns", "viewBox", "width", "height", "fill", "stroke", "stroke-width",
		"stroke-linecap", "stroke-linejoin", "aria-hidden", "role", "focusable").OnElements("svg")
	p.AllowAttrs("d", "cx", "cy", "r", "rx", "ry", "x", "y", "x1", "y1", "x2", "y2",
		"points", "fill", "stroke", "stroke-width").OnElements(svgShapes...)
	p.AllowAttrs("class").OnElements(append([]string{"svg", "g"}, svgShapes...)...)
	return p
})

var helpPolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	return p
})

// SanitizeIcon keeps inline SVG markup and drops everything else. Icon names
// such as "dashicons-admin-users" pass through.
func SanitizeIcon(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "<") {
		return raw
	}
	return strings.TrimSpace(iconPolicy().Sanitize(raw))
}

// SanitizeHelp keeps inline formatting (bold, links, lists) in help text so
// HTML hosts can emit it unescaped.
func SanitizeHelp(raw string) string {
	if raw = strings.TrimSpace(raw); raw == "" {
		return ""
	}
	return strings.TrimSpace(helpPolicy().Sanitize(raw))
}
