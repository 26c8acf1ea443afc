package template

import "io"

// Engine renders named views. The rendered text is returned and also copied
// to every writer in out.
type Engine interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(source string, data any, out ...io.Writer) (string, error)
}

// FilterFunc transforms a value inside a template expression.
type FilterFunc func(input any, param any) (any, error)

// Extensible is an Engine that accepts custom filters and view data shared
// by every render.
type Extensible interface {
	Engine
	RegisterFilter(name string, fn FilterFunc) error
	GlobalContext(data any) error
}
