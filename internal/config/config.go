// Package config loads the settings shared by the formengine binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/locale"
)

// Environment variables that override file values.
const (
	EnvBaseURL = "FORMENGINE_BASE_URL"
	EnvNonce   = "FORMENGINE_NONCE"
	EnvLocale  = "FORMENGINE_LOCALE"
)

// Config holds the runtime settings for the CLI and the HTTP server.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	Nonce       string        `yaml:"nonce"`
	Locale      locale.Locale `yaml:"locale"`
	Debounce    time.Duration `yaml:"debounce"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Listen      string        `yaml:"listen"`
	FormsDir    string        `yaml:"forms_dir"`
	Theme       Theme         `yaml:"theme"`
	Log         Log           `yaml:"log"`
}

// Theme selects the preview theme. Manifest points at a go-theme manifest
// file; without it previews render unthemed.
type Theme struct {
	Name     string `yaml:"name"`
	Variant  string `yaml:"variant"`
	Manifest string `yaml:"manifest"`
}

// LoadManifest reads the theme manifest file. It returns nil when no
// manifest is configured.
func (t Theme) LoadManifest() (*theme.Manifest, error) {
	if strings.TrimSpace(t.Manifest) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(t.Manifest)
	if err != nil {
		return nil, fmt.Errorf("config: read theme manifest: %w", err)
	}
	var manifest theme.Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("config: parse theme manifest %s: %w", t.Manifest, err)
	}
	if manifest.Name == "" {
		manifest.Name = t.Name
	}
	return &manifest, nil
}

// Log configures the process logger.
type Log struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Locale:      locale.Default,
		Debounce:    300 * time.Millisecond,
		HTTPTimeout: 10 * time.Second,
		Listen:      ":8383",
		FormsDir:    "forms",
		Theme:       Theme{Name: "default", Variant: "light"},
		Log:         Log{Format: "text", Level: "info"},
	}
}

// Load reads path (when non-empty) over the defaults and applies environment
// overrides. A missing file is an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if cfg.Locale != "" {
			cfg.Locale = locale.Parse(string(cfg.Locale))
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvNonce); ok && v != "" {
		c.Nonce = v
	}
	if v, ok := lookup(EnvLocale); ok && v != "" {
		c.Locale = locale.Parse(v)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
}

// Validate reports settings the binaries cannot run with.
func (c Config) Validate() error {
	if !c.Locale.Valid() {
		return fmt.Errorf("config: unsupported locale %q", c.Locale)
	}
	if c.Debounce < 0 {
		return errors.New("config: debounce must not be negative")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("config: http_timeout must be positive")
	}
	return nil
}
