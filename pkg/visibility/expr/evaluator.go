// Package expr implements the visibleWhen rule language.
//
// Rules reference answers by field name:
//
//	status == "active" && !archived
//	age >= 18 || guardian
//	tags has "vip"
//
// Comparisons coerce the answer to the literal's kind. "has" tests whether a
// list answer contains the value.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/validation"
	"github.com/goliatone/go-formengine/pkg/visibility"
)

// Evaluator parses and evaluates rules. Parsed rules are not cached; rules
// are short and evaluated once per edit.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval implements visibility.Evaluator. A blank rule is always true.
func (e *Evaluator) Eval(rule string, answers visibility.Answers) (bool, error) {
	if strings.TrimSpace(rule) == "" {
		return true, nil
	}
	tokens, err := lex(rule)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return true, nil
	}
	root, err := parse(tokens)
	if err != nil {
		return false, err
	}
	return root.eval(answers)
}

// Check parses rule without evaluating it.
func Check(rule string) error {
	if strings.TrimSpace(rule) == "" {
		return nil
	}
	tokens, err := lex(rule)
	if err != nil {
		return err
	}
	_, err = parse(tokens)
	return err
}

func (n orNode) eval(answers map[string]any) (bool, error) {
	ok, err := n.left.eval(answers)
	if err != nil || ok {
		return ok, err
	}
	return n.right.eval(answers)
}

func (n andNode) eval(answers map[string]any) (bool, error) {
	ok, err := n.left.eval(answers)
	if err != nil || !ok {
		return false, err
	}
	return n.right.eval(answers)
}

func (n notNode) eval(answers map[string]any) (bool, error) {
	ok, err := n.inner.eval(answers)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (n truthyNode) eval(answers map[string]any) (bool, error) {
	return !validation.IsEmpty(answers[n.name]), nil
}

func (n compareNode) eval(answers map[string]any) (bool, error) {
	got := answers[n.name]

	if n.op == tokHas {
		return contains(got, n.value.text), nil
	}

	switch n.value.kind {
	case tokNull:
		empty := validation.IsEmpty(got)
		switch n.op {
		case tokEq:
			return empty, nil
		case tokNeq:
			return !empty, nil
		}
	case tokBool:
		want := n.value.text == "true"
		have := asBool(got)
		switch n.op {
		case tokEq:
			return have == want, nil
		case tokNeq:
			return have != want, nil
		}
	case tokNumber:
		want, err := strconv.ParseFloat(n.value.text, 64)
		if err != nil {
			return false, fmt.Errorf("visibility/expr: invalid number %q", n.value.text)
		}
		have, ok := asNumber(got)
		if !ok {
			return n.op == tokNeq, nil
		}
		return compareNumbers(have, want, n.op), nil
	case tokString:
		have := validation.Stringify(got)
		switch n.op {
		case tokEq:
			return have == n.value.text, nil
		case tokNeq:
			return have != n.value.text, nil
		}
	}
	return false, fmt.Errorf("visibility/expr: operator %q not supported for %q", opText[n.op], n.value.text)
}

func compareNumbers(have, want float64, op tokenKind) bool {
	switch op {
	case tokEq:
		return have == want
	case tokNeq:
		return have != want
	case tokLt:
		return have < want
	case tokLte:
		return have <= want
	case tokGt:
		return have > want
	case tokGte:
		return have >= want
	}
	return false
}

func contains(value any, want string) bool {
	switch v := value.(type) {
	case []string:
		for _, item := range v {
			if item == want {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if validation.Stringify(item) == want {
				return true
			}
		}
	case string:
		return v == want
	}
	return false
}

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return !validation.IsEmpty(value)
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
