package render_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []render.Notice
}

func (n *recordingNotifier) Notify(_ context.Context, notice render.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) last() render.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return render.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

type submitRecorder struct {
	calls    int
	payloads []render.Payload
	resp     render.Response
	err      error
}

func (r *submitRecorder) fn(_ context.Context, p render.Payload) (render.Response, error) {
	r.calls++
	r.payloads = append(r.payloads, p)
	return r.resp, r.err
}

type serverError struct {
	message string
	fields  map[string][]string
}

func (e serverError) Error() string                    { return "server error: " + e.message }
func (e serverError) ServerMessage() string            { return e.message }
func (e serverError) FieldErrors() map[string][]string { return e.fields }

func oneSection(fields ...schema.Field) schema.FormConfig {
	for i := range fields {
		fields[i].Order = i
	}
	return schema.FormConfig{Sections: []schema.Section{{LabelEN: "Main", Fields: fields}}}
}

func TestSession_RequiredEmailBlocksThenSubmits(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "email", LabelEN: "Email", Type: schema.FieldText, Required: true})
	rec := &submitRecorder{resp: render.Response{Success: true}}
	session := render.NewSession(cfg,
		render.WithDebounce(0),
		render.WithOnSubmit(rec.fn),
		render.WithNotifier(&recordingNotifier{}),
	)
	defer session.Close()

	out, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if diff := cmp.Diff(validation.Errors{"email": "Email is required"}, out.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if out.Submitted || rec.calls != 0 {
		t.Fatalf("expected submission to be blocked")
	}

	if err := session.Set("email", "a@b.com"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	out, err = session.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !out.Submitted || rec.calls != 1 {
		t.Fatalf("expected one submission, got %d", rec.calls)
	}
	if got, _ := rec.payloads[0].Get("email"); got != "a@b.com" {
		t.Fatalf("expected email in payload, got %q", got)
	}
}

func TestSession_SelectPlaceholderThenChoice(t *testing.T) {
	cfg := oneSection(schema.Field{
		Name:          "choice",
		LabelEN:       "Choice",
		PlaceholderEN: "Pick one",
		Type:          schema.FieldSelect,
		Required:      true,
		Items: []schema.FieldOption{
			{Value: "1", LabelEN: "One", Order: 0},
			{Value: "2", LabelEN: "Two", Order: 1},
		},
	})
	session := render.NewSession(cfg, render.WithDebounce(0))
	defer session.Close()

	if got := session.Sections()[0].Fields[0].Display; got != "Pick one" {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if errs := session.Validate(); errs["choice"] == "" {
		t.Fatalf("expected required error")
	}

	if err := session.Set("choice", "2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if v, _ := session.Value("choice"); v != "2" {
		t.Fatalf("expected answer 2, got %v", v)
	}
	if msg := session.Error("choice"); msg != "" {
		t.Fatalf("expected error cleared, got %q", msg)
	}
	if got := session.Sections()[0].Fields[0].Display; got != "Two" {
		t.Fatalf("expected display Two, got %q", got)
	}
}

func TestSession_ArabicMessages(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "name", LabelEN: "Name", LabelAR: "الاسم", Type: schema.FieldText, Required: true})
	session := render.NewSession(cfg, render.WithLocale(locale.Arabic), render.WithDebounce(0))
	defer session.Close()

	errs := session.Validate()
	want := validation.Validate(cfg.Sections[0].Fields[0], nil, locale.Arabic)
	if errs["name"] != want || want == "" {
		t.Fatalf("expected arabic message %q, got %q", want, errs["name"])
	}
	if got := session.Sections()[0].Fields[0].Label; got != "الاسم" {
		t.Fatalf("expected arabic label, got %q", got)
	}
}

func TestSession_DebounceUsesLatestValue(t *testing.T) {
	cfg := oneSection(
		schema.Field{Name: "pin", LabelEN: "PIN", Type: schema.FieldNumber, Min: intPtr(5)},
		schema.Field{Name: "code", LabelEN: "Code", Type: schema.FieldNumber, Min: intPtr(2)},
	)

	type call struct{ name, msg string }
	calls := make(chan call, 10)
	session := render.NewSession(cfg,
		render.WithDebounce(30*time.Millisecond),
		render.WithErrorListener(func(name, msg string) { calls <- call{name, msg} }),
	)
	defer session.Close()

	for _, v := range []string{"1", "12", "123"} {
		if err := session.Set("pin", v); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
	}
	if err := session.Set("code", "1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got := map[string]string{}
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case c := <-calls:
			if _, dup := got[c.name]; dup {
				t.Fatalf("field %q validated more than once", c.name)
			}
			got[c.name] = c.msg
		case <-timeout:
			t.Fatalf("timed out waiting for validations, got %v", got)
		}
	}

	want := map[string]string{
		"pin":  "PIN must be at least 5 characters",
		"code": "Code must be at least 2 characters",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("validation mismatch (-want +got):\n%s", diff)
	}

	select {
	case c := <-calls:
		t.Fatalf("unexpected extra validation %+v", c)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestSession_CloseCancelsPendingValidation(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "name", Type: schema.FieldText, Required: true})
	fired := make(chan string, 1)
	session := render.NewSession(cfg,
		render.WithDebounce(40*time.Millisecond),
		render.WithErrorListener(func(name, _ string) { fired <- name }),
	)

	if err := session.Set("name", ""); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	session.Close()

	if n := session.PendingValidations(); n != 0 {
		t.Fatalf("expected no pending validations, got %d", n)
	}
	select {
	case name := <-fired:
		t.Fatalf("validation for %q fired after close", name)
	case <-time.After(100 * time.Millisecond):
	}

	if err := session.Set("name", "x"); !errors.Is(err, render.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := session.Load(context.Background()); !errors.Is(err, render.ErrClosed) {
		t.Fatalf("expected ErrClosed from Load, got %v", err)
	}
}

func TestSession_LoadIsolatesOptionFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"v":"1","l":"Alpha"}]`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer bad.Close()

	cfg := oneSection(
		schema.Field{Name: "letters", Type: schema.FieldSelect, APIData: &schema.APIData{
			URL:     good.URL,
			Mapping: schema.Mapping{Value: "v", LabelEN: "l", LabelAR: "l"},
		}},
		schema.Field{Name: "broken", Type: schema.FieldMultiSelect, APIData: &schema.APIData{URL: bad.URL}},
		schema.Field{Name: "static", Type: schema.FieldRadio, Items: []schema.FieldOption{{Value: "x"}}},
	)
	session := render.NewSession(cfg, render.WithResolver(options.NewResolver()))
	defer session.Close()

	if got := session.Options("letters"); got != nil {
		t.Fatalf("expected no remote options before Load, got %v", got)
	}
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := []schema.FieldOption{{ID: "1", Value: "1", LabelEN: "Alpha", LabelAR: "Alpha"}}
	if diff := cmp.Diff(want, session.Options("letters")); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if got := session.Options("broken"); len(got) != 0 {
		t.Fatalf("expected broken field to have no options, got %v", got)
	}
	if session.OptionFailures()["broken"] == nil {
		t.Fatalf("expected failure recorded for broken field")
	}
	if got := session.Options("static"); len(got) != 1 {
		t.Fatalf("expected static options, got %v", got)
	}
}

func TestSession_DefaultResolverFetchesRemoteOverStaticItems(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"value":"fresh","label_en":"Fresh"}]`))
	}))
	defer srv.Close()

	cfg := oneSection(schema.Field{
		Name:    "city",
		Type:    schema.FieldSelect,
		Items:   []schema.FieldOption{{Value: "stale", LabelEN: "Stale"}},
		APIData: &schema.APIData{URL: srv.URL},
	})
	session := render.NewSession(cfg)
	defer session.Close()

	if got := session.Options("city"); got != nil {
		t.Fatalf("expected no options before Load, got %v", got)
	}
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", hits.Load())
	}
	want := []schema.FieldOption{{ID: "fresh", Value: "fresh", LabelEN: "Fresh"}}
	if diff := cmp.Diff(want, session.Options("city")); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_UpdateModePrefillAndImageRemoval(t *testing.T) {
	cfg := oneSection(
		schema.Field{Name: "email", Type: schema.FieldEmail},
		schema.Field{Name: "avatar", Type: schema.FieldUploadImage},
		schema.Field{Name: "tags", Type: schema.FieldMultiSelect},
	)
	record := map[string]any{
		"email":     "x@y.com",
		"image_url": "https://cdn.example.com/a.png",
		"tags":      []any{"a", map[string]any{"value": "b", "label_en": "B"}},
		"post_id":   42.0,
	}
	submit := &submitRecorder{resp: render.Response{Success: true}}
	update := &submitRecorder{resp: render.Response{Success: true, Message: "Saved"}}
	notifier := &recordingNotifier{}
	session := render.NewSession(cfg,
		render.WithMode(render.ModeUpdate),
		render.WithInitialAnswers(record),
		render.WithOnSubmit(submit.fn),
		render.WithOnUpdate(update.fn),
		render.WithNotifier(notifier),
		render.WithDebounce(0),
	)
	defer session.Close()

	avatar, _ := session.Value("avatar")
	if diff := cmp.Diff(render.ImageValue{URL: "https://cdn.example.com/a.png"}, avatar); diff != "" {
		t.Fatalf("avatar mismatch (-want +got):\n%s", diff)
	}
	if _, ok := session.Value("image_url"); ok {
		t.Fatalf("expected alias key to be remapped")
	}
	if v, _ := session.Value("post_id"); v != 42.0 {
		t.Fatalf("expected unknown keys merged as-is, got %v", v)
	}

	out, err := session.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if submit.calls != 0 || update.calls != 1 || !out.Submitted {
		t.Fatalf("expected update handler only, submit=%d update=%d", submit.calls, update.calls)
	}
	wantParts := []render.Part{
		{Name: "email", Value: "x@y.com"},
		{Name: "tags[0]", Value: "a"},
		{Name: "tags[1]", Value: "b"},
	}
	if diff := cmp.Diff(wantParts, update.payloads[0].Parts); diff != "" {
		t.Fatalf("parts mismatch (-want +got):\n%s", diff)
	}
	if notifier.last().Message != "Saved" {
		t.Fatalf("expected server success message, got %+v", notifier.last())
	}

	if err := session.RemoveImage("avatar"); err != nil {
		t.Fatalf("RemoveImage returned error: %v", err)
	}
	if _, err := session.Submit(context.Background()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if got, ok := update.payloads[1].Get("avatar" + render.RemovedSuffix); !ok || got != "true" {
		t.Fatalf("expected removal marker, got %q (ok=%v)", got, ok)
	}
}

func TestSession_NewImageIsSentAsFile(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "avatar", Type: schema.FieldUploadImage, Required: true})
	rec := &submitRecorder{resp: render.Response{Success: true}}
	session := render.NewSession(cfg, render.WithDebounce(0), render.WithOnSubmit(rec.fn), render.WithNotifier(&recordingNotifier{}))
	defer session.Close()

	if err := session.SetImage("avatar", render.Upload{Filename: "me.png", ContentType: "image/png", Data: []byte("png")}); err != nil {
		t.Fatalf("SetImage returned error: %v", err)
	}
	if _, err := session.Submit(context.Background()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	p := rec.payloads[0]
	if !p.HasFile() || p.Parts[0].File.Filename != "me.png" {
		t.Fatalf("expected file part, got %+v", p.Parts)
	}
}

func TestSession_PreviewRefusesSubmit(t *testing.T) {
	session := render.NewSession(oneSection(schema.Field{Name: "a", Type: schema.FieldText}), render.WithMode(render.ModePreview))
	defer session.Close()

	if err := session.Set("a", "edit allowed"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := session.Submit(context.Background()); !errors.Is(err, render.ErrPreviewMode) {
		t.Fatalf("expected ErrPreviewMode, got %v", err)
	}
}

func TestSession_TransportFailureKeepsAnswers(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "email", LabelEN: "Email", Type: schema.FieldEmail})
	rec := &submitRecorder{err: serverError{
		message: "Email already registered",
		fields:  map[string][]string{"/body/email": {"Email already registered"}},
	}}
	notifier := &recordingNotifier{}
	session := render.NewSession(cfg, render.WithDebounce(0), render.WithOnSubmit(rec.fn), render.WithNotifier(notifier))
	defer session.Close()

	_ = session.Set("email", "a@b.com")
	out, err := session.Submit(context.Background())
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if out.Submitted {
		t.Fatalf("did not expect submitted outcome")
	}
	if got := notifier.last(); got.Level != render.NoticeError || got.Message != "Email already registered" {
		t.Fatalf("unexpected notice %+v", got)
	}
	if got := session.Error("email"); got != "Email already registered" {
		t.Fatalf("expected server field error, got %q", got)
	}
	if v, _ := session.Value("email"); v != "a@b.com" {
		t.Fatalf("expected answers retained, got %v", v)
	}
}

func TestSession_UnattributedServerMessagesJoinNotice(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "email", LabelEN: "Email", Type: schema.FieldEmail})
	rec := &submitRecorder{err: serverError{
		message: "Check the form",
		fields:  map[string][]string{
			"email":   {"Taken"},
			"captcha": {"Captcha expired", "Check the form"},
		},
	}}
	notifier := &recordingNotifier{}
	session := render.NewSession(cfg, render.WithDebounce(0), render.WithOnSubmit(rec.fn), render.WithNotifier(notifier))
	defer session.Close()

	_ = session.Set("email", "a@b.com")
	if _, err := session.Submit(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if got := notifier.last().Message; got != "Check the form\nCaptcha expired" {
		t.Fatalf("unexpected notice %q", got)
	}
	if got := session.Error("email"); got != "Taken" {
		t.Fatalf("expected field error, got %q", got)
	}
}

func TestSession_SetSchemaDropsRemovedFields(t *testing.T) {
	cfg := oneSection(
		schema.Field{Name: "keep", Type: schema.FieldText},
		schema.Field{Name: "old", Type: schema.FieldNumber, Min: intPtr(3)},
	)
	fired := make(chan string, 4)
	session := render.NewSession(cfg,
		render.WithDebounce(50*time.Millisecond),
		render.WithErrorListener(func(name, _ string) { fired <- name }),
	)
	defer session.Close()

	_ = session.Set("keep", "k")
	_ = session.Set("old", "1")
	if n := session.PendingValidations(); n != 2 {
		t.Fatalf("expected two pending validations, got %d", n)
	}

	if err := session.SetSchema(context.Background(), oneSection(schema.Field{Name: "keep", Type: schema.FieldText})); err != nil {
		t.Fatalf("SetSchema returned error: %v", err)
	}
	if n := session.PendingValidations(); n != 1 {
		t.Fatalf("expected one pending validation, got %d", n)
	}
	if _, ok := session.Value("old"); ok {
		t.Fatalf("expected answer for removed field to be dropped")
	}
	if v, _ := session.Value("keep"); v != "k" {
		t.Fatalf("expected kept answer, got %v", v)
	}

	select {
	case name := <-fired:
		if name != "keep" {
			t.Fatalf("unexpected validation for %q", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for kept field validation")
	}
	select {
	case name := <-fired:
		t.Fatalf("unexpected extra validation for %q", name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_RejectedResponse(t *testing.T) {
	cfg := oneSection(schema.Field{Name: "a", Type: schema.FieldText})
	rec := &submitRecorder{resp: render.Response{Success: false}}
	notifier := &recordingNotifier{}
	session := render.NewSession(cfg, render.WithOnSubmit(rec.fn), render.WithNotifier(notifier), render.WithLocale(locale.Arabic))
	defer session.Close()

	_, err := session.Submit(context.Background())
	if !errors.Is(err, render.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if got := notifier.last().Message; got == "" || got == "Something went wrong. Please try again." {
		t.Fatalf("expected arabic generic failure, got %q", got)
	}
}

func TestSession_NoHandler(t *testing.T) {
	session := render.NewSession(oneSection(schema.Field{Name: "a", Type: schema.FieldText}))
	defer session.Close()
	if _, err := session.Submit(context.Background()); !errors.Is(err, render.ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

func TestSession_HiddenFieldsSkipValidationAndPayload(t *testing.T) {
	cfg := oneSection(
		schema.Field{Name: "kind", Type: schema.FieldRadio, Items: []schema.FieldOption{{Value: "personal"}, {Value: "business"}}},
		schema.Field{Name: "company", LabelEN: "Company", Type: schema.FieldText, Required: true, VisibleWhen: `kind == "business"`},
	)
	rec := &submitRecorder{resp: render.Response{Success: true}}
	session := render.NewSession(cfg,
		render.WithDebounce(0),
		render.WithOnSubmit(rec.fn),
		render.WithNotifier(&recordingNotifier{}),
		render.WithInitialAnswers(map[string]any{"kind": "personal", "company": "Acme"}),
	)
	defer session.Close()

	out, err := session.Submit(context.Background())
	if err != nil || !out.Submitted {
		t.Fatalf("expected submission, got %+v err=%v", out, err)
	}
	if _, ok := rec.payloads[0].Get("company"); ok {
		t.Fatalf("hidden field leaked into payload")
	}
	if !session.Sections()[0].Fields[1].Hidden {
		t.Fatalf("expected company hidden in view")
	}

	_ = session.Set("kind", "business")
	_ = session.Set("company", "")
	out, _ = session.Submit(context.Background())
	if out.Errors["company"] != "Company is required" {
		t.Fatalf("expected visible field validated, got %v", out.Errors)
	}
}

func TestSession_ToggleAndDates(t *testing.T) {
	cfg := oneSection(
		schema.Field{Name: "tags", Type: schema.FieldCheckbox, Items: []schema.FieldOption{{Value: "a", LabelEN: "A"}, {Value: "b", LabelEN: "B"}}},
		schema.Field{Name: "agree", Type: schema.FieldCheckbox},
		schema.Field{Name: "born", Type: schema.FieldDate},
	)
	session := render.NewSession(cfg, render.WithDebounce(0))
	defer session.Close()

	for _, v := range []string{"a", "b", "a"} {
		if err := session.Toggle("tags", v); err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
	}
	if v, _ := session.Value("tags"); !cmp.Equal(v, []string{"b"}) {
		t.Fatalf("expected [b], got %v", v)
	}
	if err := session.Toggle("agree", ""); err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if v, _ := session.Value("agree"); v != true {
		t.Fatalf("expected agree toggled on, got %v", v)
	}

	if err := session.Set("born", "31/01/1990"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if v, _ := session.Value("born"); v != "1990-01-31" {
		t.Fatalf("expected normalized date, got %v", v)
	}
	if got := session.Sections()[0].Fields[2].Display; got != "31/01/1990" {
		t.Fatalf("expected display date, got %q", got)
	}
	if err := session.Set("born", "not a date"); err == nil {
		t.Fatalf("expected invalid date error")
	}
	if err := session.Set("missing", "x"); !errors.Is(err, render.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSession_EmptySchemaRendersNothing(t *testing.T) {
	session := render.NewSession(schema.FormConfig{})
	defer session.Close()

	if got := session.Sections(); got != nil {
		t.Fatalf("expected no sections, got %v", got)
	}
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}

func TestSession_SectionsSortedByOrder(t *testing.T) {
	cfg := schema.FormConfig{Sections: []schema.Section{
		{LabelEN: "Second", Order: 1, Fields: []schema.Field{{Name: "b", Type: schema.FieldText, Order: 1}, {Name: "a", Type: schema.FieldText, Order: 0}}},
		{LabelEN: "First", Order: 0},
	}}
	session := render.NewSession(cfg)
	defer session.Close()

	views := session.Sections()
	if views[0].Label != "First" || views[1].Label != "Second" {
		t.Fatalf("sections not sorted: %q, %q", views[0].Label, views[1].Label)
	}
	if views[1].Fields[0].Field.Name != "a" {
		t.Fatalf("fields not sorted")
	}
	if cfg.Sections[0].LabelEN != "Second" {
		t.Fatalf("sorting mutated the input config")
	}
}

func intPtr(v int) *int { return &v }
