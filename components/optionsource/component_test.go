package optionsource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/components/optionsource"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestComponentFeedsResolver(t *testing.T) {
	component := optionsource.New(optionsource.WithItems([]schema.FieldOption{
		{Value: "red", LabelEN: "Red", LabelAR: "أحمر"},
		{Value: "blue", LabelEN: "Blue", LabelAR: "أزرق"},
	}))

	mux := http.NewServeMux()
	if _, err := component.RegisterRoutes(mux, "/forms"); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	api := component.APIData(srv.URL+"/", "/forms")
	if api.URL != srv.URL+"/forms/options" {
		t.Fatalf("unexpected url %q", api.URL)
	}

	field := schema.Field{Name: "color", Type: schema.FieldSelect, APIData: &api}
	got, err := options.NewResolver().Resolve(context.Background(), field)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []schema.FieldOption{
		{ID: "red", Order: 0, Value: "red", LabelEN: "Red", LabelAR: "أحمر"},
		{ID: "blue", Order: 1, Value: "blue", LabelEN: "Blue", LabelAR: "أزرق"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestNilComponentUsesDefaults(t *testing.T) {
	var c *optionsource.Component
	if got := c.Config().Route; got != "/options" {
		t.Fatalf("unexpected default route %q", got)
	}
}
