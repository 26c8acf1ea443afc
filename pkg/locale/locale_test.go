package locale

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Locale{
		"ar":          Arabic,
		"ar-SA":       Arabic,
		"AR_eg.UTF-8": Arabic,
		"en_US.UTF-8": English,
		"":            English,
		"fr":          English,
	}
	for input, want := range cases {
		if got := Parse(input); got != want {
			t.Fatalf("Parse(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FORMENGINE_LOCALE", "")
	t.Setenv("LANG", "ar_SA.UTF-8")
	if got := FromEnv(); got != Arabic {
		t.Fatalf("expected arabic from LANG, got %q", got)
	}

	t.Setenv("FORMENGINE_LOCALE", "en")
	if got := FromEnv(); got != English {
		t.Fatalf("expected explicit override, got %q", got)
	}
}

func TestPickFallsBack(t *testing.T) {
	if got := Arabic.Pick("Name", ""); got != "Name" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := Arabic.Pick("Name", "الاسم"); got != "الاسم" {
		t.Fatalf("expected arabic, got %q", got)
	}
	if got := English.Pick("", "الاسم"); got != "الاسم" {
		t.Fatalf("expected arabic fallback, got %q", got)
	}
	if Arabic.Dir() != "rtl" || English.Dir() != "ltr" {
		t.Fatalf("unexpected directions")
	}
}
