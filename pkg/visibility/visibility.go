// Package visibility decides whether a field takes part in the current form
// session based on its visibleWhen rule and the answers gathered so far.
package visibility

import (
	"context"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Answers is the current answer state keyed by field name.
type Answers map[string]any

// Evaluator reports whether a rule holds for the given answers.
type Evaluator interface {
	Eval(rule string, answers Answers) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule string, answers Answers) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule string, answers Answers) (bool, error) {
	return fn(rule, answers)
}

// Visible evaluates the field's rule. Fields without a rule are always
// visible. A rule that fails to evaluate leaves the field visible and is
// logged so a broken schema never hides required inputs.
func Visible(ctx context.Context, ev Evaluator, field schema.Field, answers Answers) bool {
	if ev == nil || field.VisibleWhen == "" {
		return true
	}
	ok, err := ev.Eval(field.VisibleWhen, answers)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("visibility rule failed",
			"field", field.Name,
			"rule", field.VisibleWhen,
			"error", err,
		)
		return true
	}
	return ok
}

// Hidden lists the fields of cfg whose rule currently evaluates to false.
func Hidden(ctx context.Context, ev Evaluator, cfg schema.FormConfig, answers Answers) map[string]bool {
	hidden := make(map[string]bool)
	for _, field := range cfg.Fields() {
		if !Visible(ctx, ev, field, answers) {
			hidden[field.Name] = true
		}
	}
	return hidden
}
