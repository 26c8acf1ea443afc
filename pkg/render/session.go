// Package render holds the viewer side of the engine: a Session interprets a
// FormConfig plus answer state, validates edits, and builds the submission
// payload. Hosts (terminal prompts, HTML preview) present a Session.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
	"github.com/goliatone/go-formengine/pkg/visibility/expr"
)

// Mode selects what a confirmed submit does.
type Mode string

const (
	ModeCreate  Mode = "create"
	ModeUpdate  Mode = "update"
	ModePreview Mode = "preview"
)

// DefaultDebounce is the per-field validation delay.
const DefaultDebounce = 300 * time.Millisecond

// DefaultImageAliases are record keys remapped onto a schema's image field
// during prefill when the record does not use the field's own name.
var DefaultImageAliases = []string{"image", "image_url", "thumbnail", "featured_image"}

// Response is what the persistence collaborator answers to submit/update.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// SubmitFunc receives a validated payload.
type SubmitFunc func(ctx context.Context, payload Payload) (Response, error)

// Outcome reports what Submit did. When Errors is non-empty the submission
// was blocked and no handler ran.
type Outcome struct {
	Submitted bool
	Errors    validation.Errors
	Payload   Payload
	Response  Response
}

// Option configures a Session.
type Option func(*Session)

// WithLocale sets the locale used for labels and messages.
func WithLocale(l locale.Locale) Option {
	return func(s *Session) {
		if l.Valid() {
			s.locale = l
		}
	}
}

// WithMode sets the session mode. Defaults to ModeCreate.
func WithMode(mode Mode) Option {
	return func(s *Session) {
		s.mode = mode
	}
}

// WithInitialAnswers hydrates answer state from a flat record.
func WithInitialAnswers(record map[string]any) Option {
	return func(s *Session) {
		s.initial = record
	}
}

// WithResolver sets the option fetcher used by Load. Sessions fetch with an
// options.Resolver when none is given.
func WithResolver(fetcher options.Fetcher) Option {
	return func(s *Session) {
		s.fetcher = fetcher
	}
}

// WithEvaluator overrides the visibleWhen evaluator.
func WithEvaluator(ev visibility.Evaluator) Option {
	return func(s *Session) {
		s.evaluator = ev
	}
}

// WithNotifier sets the collaborator that shows toast-style notices.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebounce sets the per-field validation delay. Zero validates
// synchronously on every edit.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.wait = d
	}
}

// WithOnSubmit sets the handler used in create mode.
func WithOnSubmit(fn SubmitFunc) Option {
	return func(s *Session) {
		s.onSubmit = fn
	}
}

// WithOnUpdate sets the handler used in update mode.
func WithOnUpdate(fn SubmitFunc) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// WithErrorListener is called after each debounced field validation with the
// field name and its message ("" when the field is valid).
func WithErrorListener(fn func(name, message string)) Option {
	return func(s *Session) {
		s.onError = fn
	}
}

// WithImageAliases replaces DefaultImageAliases.
func WithImageAliases(keys ...string) Option {
	return func(s *Session) {
		s.imageAliases = append([]string(nil), keys...)
	}
}

// Session owns the answer and error state of one form session.
type Session struct {
	locale       locale.Locale
	mode         Mode
	initial      map[string]any
	fetcher      options.Fetcher
	evaluator    visibility.Evaluator
	notifier     Notifier
	logger       *slog.Logger
	wait         time.Duration
	onSubmit     SubmitFunc
	onUpdate     SubmitFunc
	onError      func(name, message string)
	imageAliases []string
	debounce     *debouncer

	mu         sync.Mutex
	cfg        schema.FormConfig
	answers    map[string]any
	errors     validation.Errors
	options    map[string][]schema.FieldOption
	failures   map[string]error
	closed     bool
	generation int
	inflight   map[int]context.CancelFunc
	nextFetch  int
}

// NewSession prepares a session over cfg. The config is normalized first so
// loose shapes are resolved once. Options are not fetched until Load.
func NewSession(cfg schema.FormConfig, opts ...Option) *Session {
	s := &Session{
		locale:       locale.Default,
		mode:         ModeCreate,
		evaluator:    expr.New(),
		notifier:     LogNotifier{},
		logger:       slog.Default(),
		wait:         DefaultDebounce,
		imageAliases: DefaultImageAliases,
		cfg:          schema.Normalize(cfg),
		answers:      make(map[string]any),
		errors:       make(validation.Errors),
		options:      make(map[string][]schema.FieldOption),
		failures:     make(map[string]error),
		inflight:     make(map[int]context.CancelFunc),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.fetcher == nil {
		s.fetcher = options.NewResolver(options.WithLogger(s.logger))
	}
	s.debounce = newDebouncer(s.wait)
	s.hydrate(s.initial)
	return s
}

// Locale returns the session locale.
func (s *Session) Locale() locale.Locale { return s.locale }

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// Config returns a copy of the normalized config.
func (s *Session) Config() schema.FormConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Load resolves option lists for every choice field. Remote sources are
// fetched concurrently; a failing source leaves its field without options
// and is logged. Results arriving after Close or a schema change are
// discarded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	cfg := s.cfg
	generation := s.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	id := s.nextFetch
	s.nextFetch++
	s.inflight[id] = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}()

	res := options.ResolveAll(ctxlog.WithLogger(fetchCtx, s.logger), s.fetcher, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if generation != s.generation {
		return nil
	}
	for name, opts := range res.Options {
		s.options[name] = opts
	}
	for name, err := range res.Failures {
		s.failures[name] = err
	}
	return nil
}

// SetSchema swaps the config and resolves options again. Answers and pending
// validations of fields the new config no longer declares are dropped.
func (s *Session) SetSchema(ctx context.Context, cfg schema.FormConfig) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	previous := s.cfg
	s.cfg = schema.Normalize(cfg)
	s.generation++
	s.options = make(map[string][]schema.FieldOption)
	s.failures = make(map[string]error)
	s.errors = make(validation.Errors)
	var dropped []string
	for _, field := range previous.Fields() {
		if _, ok := s.cfg.FieldByName(field.Name); !ok {
			dropped = append(dropped, field.Name)
			delete(s.answers, field.Name)
		}
	}
	s.mu.Unlock()

	for _, name := range dropped {
		s.debounce.Cancel(name)
	}
	return s.Load(ctx)
}

// OptionFailures lists fields whose remote options could not be resolved.
func (s *Session) OptionFailures() map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]error, len(s.failures))
	for k, v := range s.failures {
		out[k] = v
	}
	return out
}

// Options returns the resolved options for a field. Before Load, static
// items are returned.
func (s *Session) Options(name string) []schema.FieldOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, ok := s.cfg.FieldByName(name)
	if !ok {
		return nil
	}
	return s.optionsFor(field)
}

func (s *Session) optionsFor(field schema.Field) []schema.FieldOption {
	if opts, ok := s.options[field.Name]; ok {
		return opts
	}
	if field.HasRemoteOptions() {
		return nil
	}
	return field.Items
}

// Set stores a new answer for name, coerced to the field's shape, and
// schedules validation of that field.
func (s *Session) Set(name string, value any) error {
	return s.edit(name, func(field schema.Field, _ any) (any, error) {
		return handlerFor(field).coerce(field, value)
	})
}

// Toggle flips membership of value in a list answer. For a single checkbox
// it flips the boolean and ignores value.
func (s *Session) Toggle(name, value string) error {
	return s.edit(name, func(field schema.Field, current any) (any, error) {
		switch ShapeOf(field) {
		case ShapeBool:
			on, _ := current.(bool)
			return !on, nil
		case ShapeStrings:
			list, _ := current.([]string)
			out := make([]string, 0, len(list)+1)
			found := false
			for _, item := range list {
				if item == value {
					found = true
					continue
				}
				out = append(out, item)
			}
			if !found {
				out = append(out, value)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("render: field %q does not toggle", field.Name)
		}
	})
}

// SetImage attaches a newly picked file to an image field.
func (s *Session) SetImage(name string, file Upload) error {
	return s.edit(name, func(field schema.Field, _ any) (any, error) {
		if field.Type != schema.FieldUploadImage {
			return nil, fmt.Errorf("render: field %q is not an image field", field.Name)
		}
		return ImageValue{File: &file, Changed: true}, nil
	})
}

// RemoveImage clears an image field. Removing an image that came from the
// prefill record marks it for removal on the server.
func (s *Session) RemoveImage(name string) error {
	return s.edit(name, func(field schema.Field, current any) (any, error) {
		if field.Type != schema.FieldUploadImage {
			return nil, fmt.Errorf("render: field %q is not an image field", field.Name)
		}
		prev, _ := current.(ImageValue)
		return ImageValue{Removed: prev.URL != "" || prev.Removed}, nil
	})
}

func (s *Session) edit(name string, apply func(field schema.Field, current any) (any, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	field, ok := s.cfg.FieldByName(name)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	next, err := apply(field, s.answers[name])
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.answers[name] = next
	s.mu.Unlock()

	s.debounce.Schedule(name, func() { s.validateField(name) })
	return nil
}

// validateField reads the latest answer at fire time.
func (s *Session) validateField(name string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	field, ok := s.cfg.FieldByName(name)
	if !ok {
		s.mu.Unlock()
		return
	}
	msg := ""
	if visibility.Visible(ctxlog.WithLogger(context.Background(), s.logger), s.evaluator, field, s.answers) {
		msg = validation.Validate(field, s.answers[name], s.locale)
	}
	if msg == "" {
		delete(s.errors, name)
	} else {
		s.errors[name] = msg
	}
	listener := s.onError
	s.mu.Unlock()

	if listener != nil {
		listener(name, msg)
	}
}

// PendingValidations reports how many debounced validations are waiting.
func (s *Session) PendingValidations() int {
	return s.debounce.Pending()
}

// Validate checks every visible field now and replaces the error state.
func (s *Session) Validate() validation.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() validation.Errors {
	hidden := s.hiddenLocked()
	errs := validation.ValidateForm(s.cfg, s.answers, s.locale,
		validation.WithFieldFilter(func(f schema.Field) bool { return !hidden[f.Name] }))
	s.errors = errs
	return copyErrors(errs)
}

func (s *Session) hiddenLocked() map[string]bool {
	ctx := ctxlog.WithLogger(context.Background(), s.logger)
	return visibility.Hidden(ctx, s.evaluator, s.cfg, s.answers)
}

// Submit validates the whole form and, when clean, hands the payload to the
// update handler in update mode or the submit handler otherwise. Validation
// failures block submission and are returned in Outcome.Errors. Transport
// failures are reported through the notifier and returned; answers are kept
// so the operator can retry.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if s.mode == ModePreview {
		s.mu.Unlock()
		return Outcome{}, ErrPreviewMode
	}
	if errs := s.validateLocked(); !errs.Empty() {
		s.mu.Unlock()
		return Outcome{Errors: errs}, nil
	}

	hidden := s.hiddenLocked()
	fields := make([]schema.Field, 0)
	for _, field := range s.cfg.Fields() {
		if !hidden[field.Name] {
			fields = append(fields, field)
		}
	}
	payload := BuildPayload(fields, s.answers)
	cfg := s.cfg
	handler := s.onSubmit
	if s.mode == ModeUpdate {
		handler = s.onUpdate
	}
	s.mu.Unlock()

	if handler == nil {
		return Outcome{Payload: payload}, ErrNoHandler
	}

	logger := s.logger.With("mode", string(s.mode))
	resp, err := handler(ctx, payload)
	if err == nil && !resp.Success {
		err = rejection{message: resp.Message}
	}
	if err != nil {
		logger.Error("form submission failed", "error", err)
		out := Outcome{Payload: payload, Response: resp}
		var form []string
		out.Errors, form = s.applyServerErrors(cfg, err)
		messages := MergeFormErrors([]string{s.failureMessage(err)}, form...)
		s.notifier.Notify(ctx, Notice{Level: NoticeError, Message: strings.Join(messages, "\n")})
		return out, fmt.Errorf("render: %s: %w", s.mode, err)
	}

	msg := resp.Message
	if msg == "" {
		msg = genericSuccess(s.locale, s.mode)
	}
	s.notifier.Notify(ctx, Notice{Level: NoticeSuccess, Message: msg})
	logger.Info("form submitted", "id", resp.ID)
	return Outcome{Submitted: true, Payload: payload, Response: resp}, nil
}

type rejection struct {
	message string
}

func (r rejection) Error() string {
	if r.message == "" {
		return ErrRejected.Error()
	}
	return ErrRejected.Error() + ": " + r.message
}

func (r rejection) Unwrap() error          { return ErrRejected }
func (r rejection) ServerMessage() string { return r.message }

func (s *Session) failureMessage(err error) string {
	var sm ServerMessenger
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return genericFailure(s.locale)
}

// applyServerErrors stores per-field server messages and returns the
// messages that name no field.
func (s *Session) applyServerErrors(cfg schema.FormConfig, err error) (validation.Errors, []string) {
	var carrier FieldErrorCarrier
	if !errors.As(err, &carrier) {
		return nil, nil
	}
	mapping := MapErrorPayload(cfg, carrier.FieldErrors())
	if len(mapping.Fields) == 0 {
		return nil, mapping.Form
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, messages := range mapping.Fields {
		s.errors[name] = messages[0]
	}
	return copyErrors(s.errors), mapping.Form
}

// Answers returns a copy of the answer state.
func (s *Session) Answers() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Value returns the current answer for name.
func (s *Session) Value(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[name]
	return v, ok
}

// Errors returns a copy of the error state.
func (s *Session) Errors() validation.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyErrors(s.errors)
}

// Error returns the current message for name.
func (s *Session) Error(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors[name]
}

// Close ends the session: pending validations are cancelled, in-flight
// option fetches are aborted and later edits fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := make([]context.CancelFunc, 0, len(s.inflight))
	for _, cancel := range s.inflight {
		cancels = append(cancels, cancel)
	}
	s.mu.Unlock()

	s.debounce.Stop()
	for _, cancel := range cancels {
		cancel()
	}
}

func copyErrors(in validation.Errors) validation.Errors {
	out := make(validation.Errors, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
