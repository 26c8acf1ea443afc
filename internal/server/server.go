// Package server exposes form previews, answer validation and option sources
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-formengine/components/optionsource"
	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/htmlpreview"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// OptionsBase is where option sources are mounted.
const OptionsBase = "/options"

// maxAnswersBody caps the answer document accepted by the validate route.
const maxAnswersBody = 1 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocale sets the locale used when a request does not name one.
func WithLocale(l locale.Locale) Option {
	return func(s *Server) {
		if l.Valid() {
			s.locale = l
		}
	}
}

// WithResolver sets the option fetcher used by preview sessions.
func WithResolver(fetcher options.Fetcher) Option {
	return func(s *Server) {
		s.fetcher = fetcher
	}
}

// WithPreviewRenderer registers r and makes it the default preview
// renderer. Other hosts stay reachable with ?renderer=<name> or through the
// Accept header.
func WithPreviewRenderer(r render.Renderer) Option {
	return func(s *Server) {
		if r == nil {
			return
		}
		if err := s.renderers.Register(r); err != nil {
			s.logger.Warn("preview renderer not registered", "renderer", r.Name(), "error", err)
			return
		}
		_ = s.renderers.SetDefault(r.Name())
	}
}

// WithOptionSource mounts an option list under /options/<name>.
func WithOptionSource(name string, items []schema.FieldOption) Option {
	return func(s *Server) {
		s.sources[name] = optionsource.New(
			optionsource.WithRoutePath(name),
			optionsource.WithItems(items),
		)
	}
}

// Server routes form requests to a FormStore.
type Server struct {
	store     FormStore
	logger    *slog.Logger
	locale    locale.Locale
	fetcher   options.Fetcher
	renderers *render.Registry
	sources   map[string]*optionsource.Component
}

// New builds a server over store.
func New(store FormStore, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: form store is required")
	}
	s := &Server{
		store:     store,
		logger:    slog.Default(),
		locale:    locale.Default,
		renderers: render.NewRegistry(),
		sources:   make(map[string]*optionsource.Component),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.fetcher == nil {
		s.fetcher = options.NewResolver(options.WithLogger(s.logger))
	}
	if _, err := s.renderers.Lookup(htmlpreview.Name); err != nil {
		preview, err := htmlpreview.New()
		if err != nil {
			return nil, fmt.Errorf("server: preview renderer: %w", err)
		}
		if err := s.renderers.Register(preview); err != nil {
			return nil, fmt.Errorf("server: preview renderer: %w", err)
		}
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/forms/{name}", func(r chi.Router) {
		r.Get("/", s.getForm)
		r.Get("/preview", s.getPreview)
		r.Post("/validate", s.postValidate)
		r.Get("/payload-schema", s.getPayloadSchema)
	})

	for _, source := range s.sources {
		if _, err := source.RegisterRoutes(r, OptionsBase); err != nil {
			s.logger.Error("option source not mounted", "error", err)
		}
	}
	return r
}

// Run serves Handler on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("form server listening", "addr", addr, "option_sources", len(s.sources))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))
		logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// loadForm resolves the {name} route parameter and writes the error response
// when the form cannot be read.
func (s *Server) loadForm(w http.ResponseWriter, r *http.Request) (schema.FormConfig, bool) {
	name := chi.URLParam(r, "name")
	cfg, err := s.store.Form(r.Context(), name)
	switch {
	case err == nil:
		return cfg, true
	case errors.Is(err, ErrFormNotFound):
		writeError(w, http.StatusNotFound, "FORM_NOT_FOUND", "form not found: "+name)
	case schema.IsLoadError(err):
		ctxlog.FromContext(r.Context()).Error("form failed to load", "form", name, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "FORM_UNREADABLE", err.Error())
	default:
		ctxlog.FromContext(r.Context()).Error("form store failed", "form", name, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "form store failed")
	}
	return schema.FormConfig{}, false
}

func (s *Server) localeFor(r *http.Request) locale.Locale {
	if raw := r.URL.Query().Get("locale"); raw != "" {
		return locale.Parse(raw)
	}
	return s.locale
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	var (
		renderer render.Renderer
		err      error
	)
	if name := r.URL.Query().Get("renderer"); name != "" {
		renderer, err = s.renderers.Lookup(name)
	} else {
		renderer, err = s.renderers.Negotiate(r.Header.Get("Accept"))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNKNOWN_RENDERER", err.Error())
		return
	}

	cfg, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	session := render.NewSession(cfg,
		render.WithMode(render.ModePreview),
		render.WithLocale(s.localeFor(r)),
		render.WithResolver(s.fetcher),
		render.WithLogger(ctxlog.FromContext(r.Context())),
	)
	defer session.Close()

	if err := session.Load(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	body, err := renderer.Render(r.Context(), session)
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("preview render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "RENDER_FAILED", "preview render failed")
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors validation.Errors `json:"errors"`
	Values map[string]any    `json:"values,omitempty"`
}

// postValidate checks a flat answer record the way a session does at submit
// time: hidden fields are skipped and the visible answers are returned as
// they would be posted. Answers that pass the session rules are then checked
// against the payload schema.
func (s *Server) postValidate(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.loadForm(w, r)
	if !ok {
		return
	}

	var answers map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswersBody))
	dec.UseNumber()
	if err := dec.Decode(&answers); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "answers must be a JSON object")
		return
	}

	session := render.NewSession(cfg,
		render.WithMode(render.ModePreview),
		render.WithLocale(s.localeFor(r)),
		render.WithInitialAnswers(answers),
		render.WithLogger(ctxlog.FromContext(r.Context())),
	)
	defer session.Close()

	errs := session.Validate()
	if !errs.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Errors: errs})
		return
	}

	visible := visibleFields(session)
	payload := render.BuildPayload(visible, session.Answers())
	shape := schema.FormConfig{ID: cfg.ID, Sections: []schema.Section{{Fields: visible}}}
	if err := validation.ValidatePayload(shape, payload.Values); err != nil {
		ctxlog.FromContext(r.Context()).Info("payload failed schema check", "form", cfg.ID, "error", err)
		errs := validation.PayloadErrors(shape, err, session.Locale())
		if errs.Empty() {
			writeError(w, http.StatusUnprocessableEntity, "INVALID_PAYLOAD", err.Error())
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Errors: errs})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:  true,
		Errors: validation.Errors{},
		Values: payload.Values,
	})
}

func visibleFields(session *render.Session) []schema.Field {
	var out []schema.Field
	for _, section := range session.Sections() {
		for _, fv := range section.Fields {
			if !fv.Hidden {
				out = append(out, fv.Field)
			}
		}
	}
	return out
}

func (s *Server) getPayloadSchema(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.loadForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, validation.PayloadSchema(cfg, s.localeFor(r)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
