package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// PromptKind selects the terminal control used for a Prompt.
type PromptKind int

const (
	PromptText PromptKind = iota
	PromptMultiline
	PromptConfirm
	PromptChoice
	PromptChoices
)

func (k PromptKind) String() string {
	switch k {
	case PromptMultiline:
		return "multiline"
	case PromptConfirm:
		return "confirm"
	case PromptChoice:
		return "choice"
	case PromptChoices:
		return "choices"
	default:
		return "text"
	}
}

// Prompt is one question put to the operator. Choices and Selected are used
// by the choice kinds; Selected holds indices into Choices.
type Prompt struct {
	Kind     PromptKind
	Message  string
	Help     string
	Default  string
	Yes      bool
	Choices  []string
	Selected []int
	PageSize int
}

// Answer carries the operator reply. Only the member matching the prompt
// kind is set.
type Answer struct {
	Text   string
	Yes    bool
	Picked []int
}

// PromptDriver puts prompts to a terminal. Tests swap in a scripted driver.
type PromptDriver interface {
	Ask(ctx context.Context, p Prompt) (Answer, error)
	Notify(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out  io.Writer
	opts []survey.AskOpt
}

// NewSurveyDriver returns the interactive driver. Notices go to out, or
// stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, p Prompt) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	var (
		ans Answer
		err error
	)
	switch p.Kind {
	case PromptConfirm:
		err = survey.AskOne(&survey.Confirm{Message: p.Message, Help: p.Help, Default: p.Yes}, &ans.Yes, d.opts...)

	case PromptMultiline:
		err = survey.AskOne(&survey.Multiline{Message: p.Message, Help: p.Help, Default: p.Default}, &ans.Text, d.opts...)

	case PromptChoice:
		q := &survey.Select{Message: p.Message, Help: p.Help, Options: p.Choices, PageSize: p.PageSize}
		if len(p.Selected) > 0 && inRange(p.Selected[0], p.Choices) {
			q.Default = p.Selected[0]
		}
		var idx int
		if err = survey.AskOne(q, &idx, d.opts...); err == nil {
			ans.Picked = []int{idx}
		}

	case PromptChoices:
		q := &survey.MultiSelect{Message: p.Message, Help: p.Help, Options: p.Choices, PageSize: p.PageSize}
		var defaults []int
		for _, idx := range p.Selected {
			if inRange(idx, p.Choices) {
				defaults = append(defaults, idx)
			}
		}
		if len(defaults) > 0 {
			q.Default = defaults
		}
		err = survey.AskOne(q, &ans.Picked, d.opts...)

	default:
		err = survey.AskOne(&survey.Input{Message: p.Message, Help: p.Help, Default: p.Default}, &ans.Text, d.opts...)
	}

	if errors.Is(err, terminal.InterruptErr) {
		return Answer{}, ErrAborted
	}
	if err != nil {
		return Answer{}, fmt.Errorf("tui: %s prompt: %w", p.Kind, err)
	}
	return ans, nil
}

func (d *surveyDriver) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func inRange(idx int, choices []string) bool {
	return idx >= 0 && idx < len(choices)
}

// positions returns the indices of values present in want, in list order.
func positions(values, want []string) []int {
	var out []int
	for i, v := range values {
		if slices.Contains(want, v) {
			out = append(out, i)
		}
	}
	return out
}

// pick maps indices back to values, skipping out-of-range entries.
func pick(values []string, idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		if inRange(i, values) {
			out = append(out, values[i])
		}
	}
	return out
}
