package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

func runFill(args []string) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	var c common
	c.register(fs)
	format := fs.String("format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	record := fs.String("record", "", "prefill from this record path (relative to base URL) and update it")
	entry := fs.String("entry", "", "entry id updated when -record is set")
	submit := fs.Bool("submit", false, "send the answers to the base URL instead of printing them")
	attempts := fs.Int("attempts", 3, "re-prompts allowed for a field that fails validation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := checkFillFlags(*record, *entry, *submit); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e, err := c.env()
	if err != nil {
		return err
	}
	ctx = ctxlog.WithLogger(ctx, e.logger)

	cfg, err := c.load(ctx, e)
	if err != nil {
		return err
	}

	opts := []render.Option{
		render.WithLocale(e.locale),
		render.WithDebounce(e.cfg.Debounce),
		render.WithLogger(e.logger),
	}
	if *record != "" {
		if e.client == nil {
			return errors.New("-record needs base_url")
		}
		values, err := e.client.FetchRecord(ctx, *record)
		if err != nil {
			return fmt.Errorf("fetch record: %w", err)
		}
		opts = append(opts, render.WithMode(render.ModeUpdate), render.WithInitialAnswers(values))
	}
	if *submit {
		if e.client == nil {
			return errors.New("-submit needs base_url")
		}
		opts = append(opts, render.WithOnSubmit(e.client.Submitter()))
		if *entry != "" {
			opts = append(opts, render.WithOnUpdate(e.client.Updater(*entry)))
		}
	}

	session := render.NewSession(cfg, opts...)
	defer session.Close()
	if err := session.Load(ctx); err != nil {
		return err
	}

	r := tui.New(
		tui.WithOutputFormat(tui.OutputFormat(*format)),
		tui.WithMaxAttempts(*attempts),
		tui.WithLogger(e.logger),
	)
	out, err := r.Render(ctx, session)
	if err != nil {
		return err
	}
	if !*submit {
		_, err = os.Stdout.Write(out)
		return err
	}

	outcome, err := session.Submit(ctx)
	if err != nil {
		return err
	}
	if !outcome.Submitted {
		for name, msg := range outcome.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, msg)
		}
		return errors.New("answers did not validate")
	}
	fmt.Printf("saved %s\n", outcome.Response.ID)
	return nil
}

// checkFillFlags refuses combinations that would only fail after every
// prompt was answered.
func checkFillFlags(record, entry string, submit bool) error {
	if submit && record != "" && entry == "" {
		return errors.New("-record with -submit needs -entry")
	}
	return nil
}
