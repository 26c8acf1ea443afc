package render

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

var (
	// ErrPreviewMode is returned when submitting a read-only preview session.
	ErrPreviewMode = errors.New("render: preview sessions cannot submit")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("render: session closed")
	// ErrNoHandler is returned when no submit or update callback is wired.
	ErrNoHandler = errors.New("render: no submit handler for mode")
	// ErrUnknownField is returned when editing a name the schema does not declare.
	ErrUnknownField = errors.New("render: unknown field")
	// ErrRejected is returned when the server answers success=false.
	ErrRejected = errors.New("render: submission rejected")
)

// FieldErrorCarrier is implemented by transport errors that carry per-field
// messages from the server.
type FieldErrorCarrier interface {
	FieldErrors() map[string][]string
}

// ServerMessenger is implemented by transport errors that carry a
// human-readable server message.
type ServerMessenger interface {
	ServerMessage() string
}

// ErrorMapping is a server error payload split into messages for known
// fields and messages for the whole form.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors appends extras to existing, trimming blanks and dropping
// repeats. First occurrence order is kept.
func MergeFormErrors(existing []string, extras ...string) []string {
	return dedupe(slices.Concat(existing, extras))
}

// MapErrorPayload attributes server error keys to the form's fields. Keys
// may be JSON pointers ("/body/email"), dotted paths ("data.email") or
// indexed names ("tags[0]"). Anything else lands in Form.
func MapErrorPayload(cfg schema.FormConfig, payload map[string][]string) ErrorMapping {
	var out ErrorMapping
	known := make(map[string]bool)
	for _, field := range cfg.Fields() {
		if name := strings.TrimSpace(field.Name); name != "" {
			known[name] = true
		}
	}

	for key, messages := range payload {
		messages = dedupe(messages)
		if len(messages) == 0 {
			continue
		}
		name := fieldForKey(key, known)
		if name == "" {
			out.Form = append(out.Form, messages...)
			continue
		}
		if out.Fields == nil {
			out.Fields = make(map[string][]string)
		}
		out.Fields[name] = append(out.Fields[name], messages...)
	}
	out.Form = dedupe(out.Form)
	return out
}

// envelopes are path segments servers wrap field names in.
var envelopes = []string{"body", "request", "payload", "data", "fields", "params"}

// fieldForKey returns the first meaningful segment of key when it names a
// known field. Envelope segments and array indexes are skipped.
func fieldForKey(key string, known map[string]bool) string {
	key = strings.TrimSpace(key)
	if known[key] {
		return key
	}
	key = strings.NewReplacer("[", ".", "]", "").Replace(strings.TrimLeft(key, "#$"))
	for _, segment := range strings.FieldsFunc(key, func(r rune) bool { return r == '.' || r == '/' }) {
		segment = strings.TrimSpace(segment)
		if segment == "" || slices.Contains(envelopes, strings.ToLower(segment)) {
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if known[segment] {
			return segment
		}
		return ""
	}
	return ""
}

func dedupe(messages []string) []string {
	var out []string
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message != "" && !slices.Contains(out, message) {
			out = append(out, message)
		}
	}
	return out
}
