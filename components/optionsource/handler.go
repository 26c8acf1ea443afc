package optionsource

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goliatone/go-formengine/internal/ctxlog"
)

// HTTPError lets a guard choose the rejection status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError is a ready-made HTTPError.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// row matches the default apiData mapping, so fields need no mapping block.
type row struct {
	Value   string `json:"value"`
	LabelEN string `json:"label_en"`
	LabelAR string `json:"label_ar"`
}

type handler struct {
	cfg Config
}

// Handler serves the list described by opts.
func Handler(opts ...Option) http.Handler {
	return handler{cfg: NewConfig(opts...)}
}

// HandlerFor serves a prepared Config.
func HandlerFor(cfg Config) http.Handler {
	return handler{cfg: cfg.normalized()}
}

func (h handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", "GET, HEAD")
		writeStatus(w, http.StatusMethodNotAllowed)
		return
	}

	if h.cfg.Guard != nil {
		if err := h.cfg.Guard(r); err != nil {
			code := guardStatus(err)
			ctxlog.FromContext(r.Context()).Debug("option source request rejected", "path", r.URL.Path, "status", code, "error", err)
			writeStatus(w, code)
			return
		}
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get(h.cfg.Query.Limit))
	matches := Search(h.cfg.Items, query.Get(h.cfg.Query.Search), limit, h.cfg)

	rows := make([]row, len(matches))
	for i, item := range matches {
		rows[i] = row{Value: item.Value, LabelEN: item.LabelEN, LabelAR: item.LabelAR}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Total-Count", strconv.Itoa(len(rows)))
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

func guardStatus(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		if code := httpErr.StatusCode(); code > 0 {
			return code
		}
	}
	return http.StatusForbidden
}

func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(code)})
}

