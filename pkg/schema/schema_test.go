package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func intPtr(v int) *int { return &v }

func sampleConfig() schema.FormConfig {
	return schema.FormConfig{
		ID: "42",
		Sections: []schema.Section{
			{
				ID:            "s-1",
				LabelEN:       "Contact",
				LabelAR:       "اتصال",
				DescriptionEN: "How to reach you",
				Icon:          "user",
				Order:         0,
				Fields: []schema.Field{
					{ID: "f-1", Name: "email", LabelEN: "Email", Type: schema.FieldEmail, Required: true, Order: 0, ColSpan: 6},
					{ID: "f-2", Name: "national_id", LabelEN: "National ID", Type: schema.FieldNumber, Order: 1, Min: intPtr(10), Max: intPtr(10)},
					{
						ID: "f-3", Name: "city", LabelEN: "City", Type: schema.FieldSelect, Order: 2, ColSpan: 12,
						Items: []schema.FieldOption{
							{ID: "o-1", Order: 0, Value: "1", LabelEN: "One", LabelAR: "واحد"},
							{ID: "o-2", Order: 1, Value: "2", LabelEN: "Two", LabelAR: "اثنان"},
						},
						APIData: &schema.APIData{URL: "https://example.com/cities", Header: "Bearer x", Mapping: schema.Mapping{Value: "v", LabelEN: "l"}},
					},
				},
			},
		},
	}
}

func TestFormConfig_JSONRoundTrip(t *testing.T) {
	original := sampleConfig()

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded schema.FormConfig
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFormConfig_LooseShapes(t *testing.T) {
	raw := `{
	  "id": 12,
	  "sections": [{
	    "id": 1700000000000, "order": "1", "section_label_en": "Main",
	    "Fields": [
	      {"id": 1, "name": "code", "type": "number", "order": "0", "colSpan": "4", "min": "", "max": "8"},
	      {"id": 2, "name": "pick", "type": "radio", "order": 1, "colSpan": 12,
	       "items": [{"id": 9, "order": 0, "value": 1, "label_en": "One"}]}
	    ]
	  }]
	}`

	cfg, err := schema.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := schema.FormConfig{
		ID: "12",
		Sections: []schema.Section{{
			ID: "1700000000000", Order: 1, LabelEN: "Main",
			Fields: []schema.Field{
				{ID: "1", Name: "code", Type: schema.FieldNumber, Order: 0, ColSpan: 4, Max: intPtr(8)},
				{ID: "2", Name: "pick", Type: schema.FieldRadio, Order: 1, ColSpan: 12, Items: []schema.FieldOption{{ID: "9", Value: "1", LabelEN: "One"}}},
			},
		}},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("loose parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_YAML(t *testing.T) {
	raw := `
id: contact
sections:
  - id: s1
    order: 0
    section_label_en: Contact
    Fields:
      - id: f1
        name: email
        type: email
        required: true
        order: 0
        colSpan: "8"
`
	cfg, err := schema.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	field := cfg.Sections[0].Fields[0]
	if field.Name != "email" || !field.Required || field.ColSpan != 8 {
		t.Fatalf("unexpected field from yaml: %+v", field)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", `{"sections": 5}`, "- a\n- b\n"} {
		if _, err := schema.Parse([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestOrderedSections_DoesNotMutate(t *testing.T) {
	cfg := schema.FormConfig{Sections: []schema.Section{
		{ID: "b", Order: 1, Fields: []schema.Field{{Name: "y", Order: 1}, {Name: "x", Order: 0}}},
		{ID: "a", Order: 0},
	}}
	before := cfg.Clone()

	ordered := cfg.OrderedSections()
	if ordered[0].ID != "a" || ordered[1].Fields[0].Name != "x" {
		t.Fatalf("unexpected order: %+v", ordered)
	}
	if diff := cmp.Diff(before, cfg); diff != "" {
		t.Fatalf("config mutated (-before +after):\n%s", diff)
	}

	names := []string{}
	for _, field := range cfg.Fields() {
		names = append(names, field.Name)
	}
	if diff := cmp.Diff([]string{"x", "y"}, names); diff != "" {
		t.Fatalf("flattened order mismatch (-want +got):\n%s", diff)
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := sampleConfig()
	clone := cfg.Clone()
	clone.Sections[0].Fields[1].Min = intPtr(1)
	clone.Sections[0].Fields[2].Items[0].Value = "changed"
	clone.Sections[0].Fields[2].APIData.URL = "changed"

	field := cfg.Sections[0].Fields[1]
	if *field.Min != 10 {
		t.Fatalf("min shared with clone")
	}
	if cfg.Sections[0].Fields[2].Items[0].Value != "1" || cfg.Sections[0].Fields[2].APIData.URL == "changed" {
		t.Fatalf("nested data shared with clone")
	}
}

func TestNormalize(t *testing.T) {
	cfg := schema.FormConfig{Sections: []schema.Section{{
		Icon: `<svg viewBox="0 0 10 10"><script>alert(1)</script><path d="M0 0"/></svg>`,
		Fields: []schema.Field{
			{Name: " phone ", Type: "TEL", ColSpan: 1, Min: intPtr(3)},
			{Name: "pick", Type: "multi_select", ColSpan: 20, APIData: &schema.APIData{URL: " "}},
			{Name: "tags", Type: schema.FieldText, Items: []schema.FieldOption{{Value: "a"}}},
			{Name: "n", Type: schema.FieldNumber, Min: intPtr(2)},
		},
	}}}

	out := schema.Normalize(cfg)
	fields := out.Sections[0].Fields

	if fields[0].Name != "phone" || fields[0].Type != schema.FieldPhone || fields[0].ColSpan != schema.MinColSpan || fields[0].Min != nil {
		t.Fatalf("unexpected phone field: %+v", fields[0])
	}
	if fields[1].Type != schema.FieldMultiSelect || fields[1].ColSpan != schema.MaxColSpan || fields[1].APIData != nil {
		t.Fatalf("unexpected multiselect field: %+v", fields[1])
	}
	if fields[2].Items != nil {
		t.Fatalf("expected items dropped from text field")
	}
	if fields[3].Min == nil || *fields[3].Min != 2 || fields[3].ColSpan != schema.DefaultColSpan {
		t.Fatalf("unexpected number field: %+v", fields[3])
	}
	if icon := out.Sections[0].Icon; strings.Contains(icon, "script") || !strings.Contains(icon, "<path") {
		t.Fatalf("icon not sanitized: %q", icon)
	}
	if cfg.Sections[0].Fields[0].Name != " phone " {
		t.Fatalf("normalize mutated input")
	}
}

func TestLint(t *testing.T) {
	cfg := schema.FormConfig{Sections: []schema.Section{{
		Fields: []schema.Field{
			{Name: "a", Type: schema.FieldText},
			{Name: "a", Type: schema.FieldText},
			{Name: "", Type: "slider"},
			{Name: "n", Type: schema.FieldNumber, Min: intPtr(5), Max: intPtr(2)},
			{Name: "s", Type: schema.FieldSelect, Items: []schema.FieldOption{{Value: "1"}, {Value: "1"}, {Value: ""}}},
		},
	}}}

	issues := schema.Lint(cfg)
	got := make([]string, 0, len(issues))
	for _, issue := range issues {
		got = append(got, issue.Message)
	}
	want := []string{
		`field name "a" already used at sections[0].Fields[0]`,
		"field name is required",
		`unknown field type "slider"`,
		"min 5 greater than max 2",
		`duplicate option value "1"`,
		"option value is required",
	}
	if diff := cmp.Diff(want, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("lint mismatch (-want +got):\n%s", diff)
	}
	if issues.Err() == nil {
		t.Fatalf("expected issues to be an error")
	}
	if schema.Lint(sampleConfig()).Err() != nil {
		t.Fatalf("expected sample config to lint clean")
	}
}

func TestFieldHelpers(t *testing.T) {
	multi := schema.Field{Type: schema.FieldCheckbox, Items: []schema.FieldOption{{Value: "a"}}}
	single := schema.Field{Type: schema.FieldCheckbox}
	if !multi.IsMulti() || single.IsMulti() {
		t.Fatalf("checkbox multi detection wrong")
	}
	if !(schema.Field{Type: schema.FieldMultiSelect}).IsMulti() {
		t.Fatalf("multiselect should be multi")
	}
	if (schema.Field{Name: "x"}).Label("ar") != "x" {
		t.Fatalf("label should fall back to name")
	}
	if !schema.FieldUploadImage.Valid() || schema.FieldType("slider").Valid() {
		t.Fatalf("enum validity wrong")
	}
}
