// Package locale models the two locales the form engine speaks. Every
// component receives the locale explicitly; the only place a default is
// derived from the environment is FromEnv, called once by the binaries.
package locale

import (
	"os"
	"strings"
)

// Locale identifies a supported UI language.
type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"
)

// Default is used when nothing else is configured.
const Default = English

// Parse maps loose language tags ("ar", "ar-SA", "en_US.UTF-8") onto a
// supported Locale. Unknown tags resolve to Default.
func Parse(raw string) Locale {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexAny(tag, "-_."); idx >= 0 {
		tag = tag[:idx]
	}
	switch tag {
	case "ar":
		return Arabic
	case "en":
		return English
	default:
		return Default
	}
}

// FromEnv resolves the process-wide default from FORMENGINE_LOCALE, then LANG.
func FromEnv() Locale {
	if v := os.Getenv("FORMENGINE_LOCALE"); strings.TrimSpace(v) != "" {
		return Parse(v)
	}
	return Parse(os.Getenv("LANG"))
}

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	return l == English || l == Arabic
}

// Pick returns the string matching the locale. Arabic falls back to the
// English value when the Arabic one is blank, and vice versa.
func (l Locale) Pick(en, ar string) string {
	if l == Arabic {
		if strings.TrimSpace(ar) != "" {
			return ar
		}
		return en
	}
	if strings.TrimSpace(en) != "" {
		return en
	}
	return ar
}

// Dir returns the text direction for HTML hosts.
func (l Locale) Dir() string {
	if l == Arabic {
		return "rtl"
	}
	return "ltr"
}

func (l Locale) String() string {
	if !l.Valid() {
		return string(Default)
	}
	return string(l)
}
