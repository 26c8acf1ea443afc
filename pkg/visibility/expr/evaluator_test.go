package expr

import (
	"testing"

	"github.com/goliatone/go-formengine/pkg/visibility"
)

func TestEvaluatorRules(t *testing.T) {
	t.Parallel()

	answers := visibility.Answers{
		"status":   "active",
		"archived": false,
		"age":      "21",
		"tags":     []string{"vip", "beta"},
		"agree":    true,
		"notes":    "",
	}

	cases := []struct {
		rule string
		want bool
	}{
		{"", true},
		{`status == "active"`, true},
		{`status != 'active'`, false},
		{`status == active`, true},
		{"!archived", true},
		{"archived == false", true},
		{"agree", true},
		{"notes", false},
		{"notes == null", true},
		{"missing != null", false},
		{"age >= 18", true},
		{"age < 18", false},
		{"age == 21", true},
		{`tags has "vip"`, true},
		{`tags has "gold"`, false},
		{`status == "active" && !archived`, true},
		{`status == "closed" || tags has "beta"`, true},
		{`!(status == "active" && agree)`, false},
	}

	eval := New()
	for _, tc := range cases {
		got, err := eval.Eval(tc.rule, answers)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestEvaluatorErrors(t *testing.T) {
	t.Parallel()

	eval := New()
	for _, rule := range []string{
		"status = 1",
		`status == "open`,
		"(status == 1",
		"status ==",
		"== 1",
		"a & b",
		"a b",
	} {
		if _, err := eval.Eval(rule, nil); err == nil {
			t.Fatalf("expected error for %q", rule)
		}
		if err := Check(rule); err == nil {
			t.Fatalf("expected Check error for %q", rule)
		}
	}
}

func TestEvaluatorOrderingOnlyForNumbers(t *testing.T) {
	t.Parallel()

	if _, err := New().Eval(`status > "a"`, visibility.Answers{"status": "b"}); err == nil {
		t.Fatalf("expected error for ordering on strings")
	}
}
