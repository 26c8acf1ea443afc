package formengine_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

const doc = `
id: feedback
sections:
  - section_label_en: Feedback
    section_label_ar: ملاحظات
    order: 0
    Fields:
      - name: comment
        type: TEXTAREA
        label_en: Comment
        label_ar: تعليق
        colSpan: 40
        order: 0
`

func TestLoadFormFromFileNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := formengine.LoadForm(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadForm: %v", err)
	}
	field := cfg.Sections[0].Fields[0]
	if field.Type != schema.FieldTextarea || field.ColSpan != schema.MaxColSpan {
		t.Fatalf("expected normalized field, got %+v", field)
	}
}

func TestLoadFormMissingIsLoadError(t *testing.T) {
	_, err := formengine.LoadForm(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if !schema.IsLoadError(err) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestPreviewHTMLFromFS(t *testing.T) {
	files := fstest.MapFS{"feedback.yaml": {Data: []byte(doc)}}
	cfg, err := formengine.LoadFormFS(context.Background(), files, "feedback.yaml")
	if err != nil {
		t.Fatalf("LoadFormFS: %v", err)
	}
	session := formengine.NewSession(cfg, render.WithLocale(locale.Arabic))
	defer session.Close()

	html, err := formengine.PreviewHTML(context.Background(), session)
	if err != nil {
		t.Fatalf("PreviewHTML: %v", err)
	}
	out := string(html)
	for _, want := range []string{`dir="rtl"`, "تعليق", "<textarea"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}

func TestEmbeddedTemplatesExposeForm(t *testing.T) {
	if _, err := fs.Stat(formengine.EmbeddedTemplates(), "form.tpl"); err != nil {
		t.Fatalf("expected form.tpl: %v", err)
	}
}
