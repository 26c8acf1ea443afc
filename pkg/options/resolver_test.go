package options

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestResolveMapsRemoteRows(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"v":"1","l":"Alpha"}]`))
	}))
	defer srv.Close()

	field := schema.Field{
		Name: "letters",
		Type: schema.FieldSelect,
		APIData: &schema.APIData{
			URL:     srv.URL,
			Header:  "Bearer token",
			Mapping: schema.Mapping{Value: "v", LabelEN: "l", LabelAR: "l"},
		},
		Items: []schema.FieldOption{{Value: "ignored"}},
	}

	got, err := NewResolver(WithHTTPClient(srv.Client())).Resolve(context.Background(), field)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := []schema.FieldOption{{ID: "1", Order: 0, Value: "1", LabelEN: "Alpha", LabelAR: "Alpha"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("expected Authorization header, got %q", gotAuth)
	}
}

func TestMapRowsFallsBackToSameNamedKeys(t *testing.T) {
	rows := []any{
		map[string]any{"value": "a", "label_en": "A", "label_ar": "أ", "name": "first"},
		map[string]any{"value": 2.0, "label_en": "Two"},
		map[string]any{"label_en": "no value"},
		"not an object",
	}
	got := MapRows(rows, schema.Mapping{LabelEN: "name"})
	want := []schema.FieldOption{
		{ID: "a", Order: 0, Value: "a", LabelEN: "first", LabelAR: "أ"},
		{ID: "2", Order: 1, Value: "2", LabelEN: "", LabelAR: ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveStaticItemsPassThrough(t *testing.T) {
	items := []schema.FieldOption{{ID: "x", Value: "1", LabelEN: "One"}}
	field := schema.Field{Name: "n", Type: schema.FieldRadio, Items: items}

	got, err := NewResolver().Resolve(context.Background(), field)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if diff := cmp.Diff(items, got); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveRejectsNonArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	field := schema.Field{Name: "f", Type: schema.FieldSelect, APIData: &schema.APIData{URL: srv.URL}}
	_, err := NewResolver(WithHTTPClient(srv.Client())).Resolve(context.Background(), field)
	if !errors.Is(err, ErrNotArray) {
		t.Fatalf("expected ErrNotArray, got %v", err)
	}
}

func TestResolveCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"value":"1"}]`))
	}))
	defer srv.Close()

	field := schema.Field{Name: "f", Type: schema.FieldSelect, APIData: &schema.APIData{URL: srv.URL}}
	r := NewResolver(WithHTTPClient(srv.Client()), WithCache(true))
	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), field); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestResolveAllIsolatesFailures(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[{"value":"s"}]`))
	}))
	defer slow.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer broken.Close()

	cfg := schema.FormConfig{Sections: []schema.Section{{Fields: []schema.Field{
		{Name: "slow", Type: schema.FieldSelect, Order: 0, APIData: &schema.APIData{URL: slow.URL}},
		{Name: "broken", Type: schema.FieldSelect, Order: 1, APIData: &schema.APIData{URL: broken.URL}},
		{Name: "static", Type: schema.FieldRadio, Order: 2, Items: []schema.FieldOption{{Value: "r"}}},
		{Name: "text", Type: schema.FieldText, Order: 3},
	}}}}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	res := ResolveAll(context.Background(), NewResolver(), cfg)

	if len(res.Options["slow"]) != 1 || res.Options["slow"][0].Value != "s" {
		t.Fatalf("unexpected slow options %+v", res.Options["slow"])
	}
	if opts, ok := res.Options["broken"]; !ok || len(opts) != 0 {
		t.Fatalf("expected empty options for broken field, got %+v", opts)
	}
	if res.Failures["broken"] == nil {
		t.Fatalf("expected failure for broken field")
	}
	if len(res.Options["static"]) != 1 {
		t.Fatalf("expected static items to pass through")
	}
	if _, ok := res.Options["text"]; ok {
		t.Fatalf("did not expect options for text field")
	}
}

func TestResolveAllWithoutFetcherLeavesRemoteFieldsEmpty(t *testing.T) {
	cfg := schema.FormConfig{Sections: []schema.Section{{Fields: []schema.Field{
		{Name: "city", Type: schema.FieldSelect, Order: 0,
			Items:   []schema.FieldOption{{Value: "stale"}},
			APIData: &schema.APIData{URL: "https://example.com/cities"}},
		{Name: "static", Type: schema.FieldRadio, Order: 1, Items: []schema.FieldOption{{Value: "r"}}},
	}}}}

	res := ResolveAll(context.Background(), nil, cfg)

	if opts, ok := res.Options["city"]; !ok || len(opts) != 0 {
		t.Fatalf("expected no options for remote field, got %+v", opts)
	}
	if !errors.Is(res.Failures["city"], ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", res.Failures["city"])
	}
	if len(res.Options["static"]) != 1 {
		t.Fatalf("expected static items to pass through")
	}
}
