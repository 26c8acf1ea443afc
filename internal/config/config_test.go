package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/locale"
)

func TestLoadFileOverDefaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvNonce, "")
	t.Setenv(EnvLocale, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "formengine.yaml")
	raw := []byte(`
base_url: https://example.com/wp-json/forms/v1/
locale: ar-SA
debounce: 150ms
theme:
  name: garden
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := Default()
	want.BaseURL = "https://example.com/wp-json/forms/v1"
	want.Locale = locale.Arabic
	want.Debounce = 150 * time.Millisecond
	want.Theme = Theme{Name: "garden", Variant: "light"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBaseURL: "http://localhost:8080/",
		EnvNonce:   "abc123",
		EnvLocale:  "ar",
	}
	cfg := Default()
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	if cfg.BaseURL != "http://localhost:8080" || cfg.Nonce != "abc123" || cfg.Locale != locale.Arabic {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http_timeout: 0s\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestThemeLoadManifest(t *testing.T) {
	m, err := Theme{Name: "garden"}.LoadManifest()
	if err != nil || m != nil {
		t.Fatalf("expected no manifest, got %v, %v", m, err)
	}

	if _, err := (Theme{Manifest: filepath.Join(t.TempDir(), "none.yaml")}).LoadManifest(); err == nil {
		t.Fatalf("expected read error")
	}

	path := filepath.Join(t.TempDir(), "theme.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	m, err = Theme{Name: "garden", Manifest: path}.LoadManifest()
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "garden" {
		t.Fatalf("expected name fallback, got %q", m.Name)
	}
}
