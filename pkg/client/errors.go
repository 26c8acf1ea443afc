package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports a failed call to the form endpoint. It carries the
// server message and per-field messages when the response body had them, so
// a session can show them to the operator.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("client: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Status != 0 && e.Message != "":
		fmt.Fprintf(&b, "status %d: %s", e.Status, e.Message)
	case e.Status != 0:
		fmt.Fprintf(&b, "status %d %s", e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("request failed")
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerMessage returns the message the server sent, if any.
func (e *TransportError) ServerMessage() string { return e.Message }

// FieldErrors returns per-field messages keyed as the server sent them.
func (e *TransportError) FieldErrors() map[string][]string { return e.Fields }

// parseErrorBody reads the error shapes WordPress endpoints return:
//
//	{"success": false, "message": "...", "errors": {"email": ["..."]}}
//	{"code": "rest_invalid_param", "message": "...", "data": {"params": {"email": "..."}}}
func parseErrorBody(status int, raw []byte) *TransportError {
	te := &TransportError{Status: status}
	var body struct {
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
		Data    struct {
			Params json.RawMessage `json:"params"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return te
	}
	te.Message = strings.TrimSpace(body.Message)
	fields := make(map[string][]string)
	mergeFieldMessages(fields, body.Errors)
	mergeFieldMessages(fields, body.Data.Params)
	if len(fields) > 0 {
		te.Fields = fields
	}
	return te
}

func mergeFieldMessages(dst map[string][]string, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return
	}
	for key, value := range entries {
		var one string
		if err := json.Unmarshal(value, &one); err == nil {
			if one = strings.TrimSpace(one); one != "" {
				dst[key] = append(dst[key], one)
			}
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			for _, msg := range many {
				if msg = strings.TrimSpace(msg); msg != "" {
					dst[key] = append(dst[key], msg)
				}
			}
		}
	}
}
