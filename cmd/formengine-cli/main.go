package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/internal/config"
	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/client"
	"github.com/goliatone/go-formengine/pkg/locale"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func usage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <fill|preview|lint> [flags]\n\n", name)
	fmt.Fprintf(os.Stderr, "  fill     prompt for every field and print or submit the answers\n")
	fmt.Fprintf(os.Stderr, "  preview  render a read-only HTML preview\n")
	fmt.Fprintf(os.Stderr, "  lint     check form documents for structural problems\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "fill":
		err = runFill(args)
	case "preview":
		err = runPreview(args)
	case "lint":
		err = runLint(args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	switch {
	case errors.Is(err, errIssuesFound):
		os.Exit(1)
	case err != nil:
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// common holds the flags shared by fill and preview.
type common struct {
	configPath string
	form       string
	title      string
	id         string
	locale     string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.form, "form", "", "form document path or URL")
	fs.StringVar(&c.title, "title", "", "fetch the form registered under this title from the base URL")
	fs.StringVar(&c.id, "id", "", "fetch the form with this id from the base URL")
	fs.StringVar(&c.locale, "locale", "", "en or ar (defaults to config, then LANG)")
}

// env is the runtime assembled from flags and config.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	locale locale.Locale
	client *client.Client
}

func (c *common) env() (env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return env{}, err
	}
	e := env{
		cfg:    cfg,
		logger: ctxlog.New(os.Stderr, cfg.Log.Format, cfg.Log.Level),
		locale: cfg.Locale,
	}
	if c.configPath == "" && os.Getenv(config.EnvLocale) == "" {
		e.locale = locale.FromEnv()
	}
	if c.locale != "" {
		e.locale = locale.Parse(c.locale)
	}
	if cfg.BaseURL != "" {
		e.client, err = client.New(cfg.BaseURL,
			client.WithNonce(cfg.Nonce),
			client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			client.WithLogger(e.logger),
		)
		if err != nil {
			return env{}, err
		}
	}
	return e, nil
}

func (c *common) load(ctx context.Context, e env) (schema.FormConfig, error) {
	switch {
	case strings.TrimSpace(c.form) != "":
		return formengine.LoadForm(ctx, c.form)
	case c.title != "" || c.id != "":
		if e.client == nil {
			return schema.FormConfig{}, fmt.Errorf("-title and -id need base_url (set %s)", config.EnvBaseURL)
		}
		if c.id != "" {
			return e.client.FetchSchemaByID(ctx, c.id)
		}
		return e.client.FetchSchema(ctx, c.title)
	default:
		return schema.FormConfig{}, fmt.Errorf("one of -form, -title or -id is required")
	}
}
