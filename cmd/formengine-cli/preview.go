package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/htmlpreview"
)

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	var c common
	c.register(fs)
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := c.env()
	if err != nil {
		return err
	}
	ctx := ctxlog.WithLogger(context.Background(), e.logger)

	cfg, err := c.load(ctx, e)
	if err != nil {
		return err
	}

	var opts []htmlpreview.Option
	manifest, err := e.cfg.Theme.LoadManifest()
	if err != nil {
		return err
	}
	if manifest != nil {
		opts = append(opts, htmlpreview.WithThemeSelector(
			htmlpreview.NewStaticSelector(manifest), e.cfg.Theme.Name, e.cfg.Theme.Variant))
	}
	r, err := htmlpreview.New(opts...)
	if err != nil {
		return err
	}

	session := render.NewSession(cfg,
		render.WithMode(render.ModePreview),
		render.WithLocale(e.locale),
		render.WithLogger(e.logger),
	)
	defer session.Close()
	if err := session.Load(ctx); err != nil {
		return err
	}

	html, err := r.Render(ctx, session)
	if err != nil {
		return err
	}
	if *output == "" {
		_, err = os.Stdout.Write(html)
		return err
	}
	if err := os.WriteFile(*output, html, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Preview written to %s\n", *output)
	return nil
}
