package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goliatone/go-formengine/components/optionsource"
	"github.com/goliatone/go-formengine/internal/config"
	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/internal/server"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/renderers/htmlpreview"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	formsDir := flag.String("forms", "", "directory of form documents (overrides config)")
	optionsDir := flag.String("options", "", "directory of option lists served under /options/<name>")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *formsDir != "" {
		cfg.FormsDir = *formsDir
	}
	logger := ctxlog.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithLocale(cfg.Locale),
		server.WithResolver(options.NewResolver(
			options.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			options.WithLogger(logger),
		)),
	}

	manifest, err := cfg.Theme.LoadManifest()
	if err != nil {
		log.Fatalf("loading theme: %v", err)
	}
	if manifest != nil {
		preview, err := htmlpreview.New(htmlpreview.WithThemeSelector(
			htmlpreview.NewStaticSelector(manifest), cfg.Theme.Name, cfg.Theme.Variant))
		if err != nil {
			log.Fatalf("building preview renderer: %v", err)
		}
		opts = append(opts, server.WithPreviewRenderer(preview))
	}

	if *optionsDir != "" {
		sources, err := loadOptionLists(*optionsDir)
		if err != nil {
			log.Fatalf("loading option lists: %v", err)
		}
		opts = append(opts, sources...)
	}

	srv, err := server.New(server.NewDirStore(os.DirFS(cfg.FormsDir)), opts...)
	if err != nil {
		log.Fatalf("building server: %v", err)
	}
	if err := srv.Run(ctx, cfg.Listen); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// loadOptionLists mounts every "<name>.txt" list in dir as /options/<name>.
func loadOptionLists(dir string) ([]server.Option, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	var out []server.Option
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		items, err := optionsource.LoadItems(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), ".txt")
		out = append(out, server.WithOptionSource(name, items))
	}
	return out, nil
}
