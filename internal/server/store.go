package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// ErrFormNotFound is returned when no document exists for a form name.
var ErrFormNotFound = errors.New("server: form not found")

// FormStore looks up form definitions by name.
type FormStore interface {
	Form(ctx context.Context, name string) (schema.FormConfig, error)
}

// FormStoreFunc adapts a function into a FormStore.
type FormStoreFunc func(ctx context.Context, name string) (schema.FormConfig, error)

// Form delegates to the underlying function.
func (fn FormStoreFunc) Form(ctx context.Context, name string) (schema.FormConfig, error) {
	return fn(ctx, name)
}

var documentExtensions = []string{".json", ".yaml", ".yml"}

// DirStore reads "<name>.json", "<name>.yaml" or "<name>.yml" from a file
// system. Documents are normalized on every read so edits on disk show up
// without a restart.
type DirStore struct {
	files  fs.FS
	loader *loader.Loader
}

// NewDirStore returns a store over files.
func NewDirStore(files fs.FS) *DirStore {
	return &DirStore{
		files:  files,
		loader: loader.New(schema.LoaderOptions{FileSystem: files}),
	}
}

// Form loads and normalizes the named document.
func (s *DirStore) Form(ctx context.Context, name string) (schema.FormConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return schema.FormConfig{}, fmt.Errorf("%w: %q", ErrFormNotFound, name)
	}
	for _, ext := range documentExtensions {
		candidate := name + ext
		if _, err := fs.Stat(s.files, candidate); err != nil {
			continue
		}
		cfg, err := schema.LoadFormConfig(ctx, s.loader, schema.SourceFromFS(candidate))
		if err != nil {
			return schema.FormConfig{}, err
		}
		return schema.Normalize(cfg), nil
	}
	return schema.FormConfig{}, fmt.Errorf("%w: %q", ErrFormNotFound, name)
}

// Names lists the forms available in the store.
func (s *DirStore) Names() ([]string, error) {
	entries, err := fs.ReadDir(s.files, ".")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, ext := range documentExtensions {
			base, ok := strings.CutSuffix(entry.Name(), ext)
			if ok && base != "" && !seen[base] {
				seen[base] = true
				names = append(names, base)
			}
		}
	}
	return names, nil
}
