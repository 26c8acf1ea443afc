package render

import "context"

// Renderer presents a session in some output format (terminal prompts, HTML).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, session *Session) ([]byte, error)
}
