package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source names a form document without saying how to read it.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind tells a Loader which reader to use.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type location struct {
	kind SourceKind
	at   string
}

func (l location) Kind() SourceKind { return l.kind }
func (l location) Location() string { return l.at }
func (l location) String() string   { return string(l.kind) + ":" + l.at }

// SourceFromFile points at a path on disk.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, at: filepath.Clean(path)}
}

// SourceFromFS points at an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, at: name}
}

// SourceFromURL points at an endpoint and panics when raw is not an
// absolute URL. Use ParseSource for untrusted input.
func SourceFromURL(raw string) Source {
	src, err := remote(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// ParseSource treats http(s) locations as URLs and anything else as a file.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil, fmt.Errorf("schema: empty source")
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return remote(raw)
	default:
		return SourceFromFile(raw), nil
	}
}

func remote(raw string) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("schema: URL %q is not absolute", raw)
	}
	return location{kind: SourceKindURL, at: raw}, nil
}
