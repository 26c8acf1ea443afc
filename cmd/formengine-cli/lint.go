package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/builder"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// errIssuesFound makes the process exit 1 without a log line; the issues
// were already printed.
var errIssuesFound = errors.New("issues found")

type finding struct {
	File    string `json:"file"`
	Path    string `json:"path"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func runLint(args []string) error {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print findings as a JSON array")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: lint [-json] <documents...>\n\nReports duplicate names, unknown types, bad option lists and visibility rules that do not parse.\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no documents given")
	}

	findings, err := lint(context.Background(), builder.New(), fs.Args())
	if err != nil {
		return err
	}
	if err := report(os.Stdout, findings, *asJSON); err != nil {
		return err
	}
	if len(findings) > 0 {
		return errIssuesFound
	}
	return nil
}

func lint(ctx context.Context, editor *builder.Editor, paths []string) ([]finding, error) {
	var out []finding
	for _, path := range paths {
		cfg, err := formengine.LoadForm(ctx, path)
		if err != nil {
			if !schema.IsLoadError(err) {
				return nil, err
			}
			out = append(out, finding{File: path, Message: err.Error()})
			continue
		}
		for _, issue := range editor.Check(cfg) {
			out = append(out, finding{File: path, Path: issue.Path, Field: issue.Field, Message: issue.Message})
		}
	}
	slices.SortStableFunc(out, func(a, b finding) int {
		return cmp.Or(cmp.Compare(a.File, b.File), cmp.Compare(a.Path, b.Path), cmp.Compare(a.Message, b.Message))
	})
	return out, nil
}

func report(w io.Writer, findings []finding, asJSON bool) error {
	if asJSON {
		if findings == nil {
			findings = []finding{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}
	for _, f := range findings {
		location := f.Path
		if location == "" {
			location = "document"
		}
		if _, err := fmt.Fprintf(w, "%s: %s -> %s\n", f.File, location, f.Message); err != nil {
			return err
		}
	}
	return nil
}
