package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/builder"
)

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintReportsIssuesAndLoadFailures(t *testing.T) {
	dir := t.TempDir()
	clean := writeDoc(t, dir, "clean.json", `{"sections":[{"order":0,"section_label_en":"Main","Fields":[
		{"name":"email","type":"email","label_en":"Email","order":0}]}]}`)
	dupes := writeDoc(t, dir, "dupes.json", `{"sections":[{"order":0,"section_label_en":"Main","Fields":[
		{"name":"email","type":"email","label_en":"Email","order":0},
		{"name":"email","type":"text","label_en":"Again","order":1}]}]}`)
	missing := filepath.Join(dir, "missing.json")

	findings, err := lint(context.Background(), builder.New(), []string{missing, dupes, clean})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(findings) < 2 {
		t.Fatalf("expected a duplicate finding and a load failure, got %+v", findings)
	}
	if findings[0].File != dupes {
		t.Fatalf("expected findings sorted by file, got %+v", findings)
	}
	last := findings[len(findings)-1]
	if last.File != missing || last.Path != "" {
		t.Fatalf("expected load failure for missing file, got %+v", last)
	}
	for _, f := range findings {
		if f.File == clean {
			t.Fatalf("clean document reported: %+v", f)
		}
	}
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := report(&buf, nil, true); err != nil {
		t.Fatalf("report: %v", err)
	}
	var got []finding
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]finding{}, got); diff != "" {
		t.Fatalf("expected empty array (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := report(&buf, []finding{{File: "a.json", Message: "broken"}}, false); err != nil {
		t.Fatalf("report: %v", err)
	}
	if buf.String() != "a.json: document -> broken\n" {
		t.Fatalf("unexpected text report %q", buf.String())
	}
}
