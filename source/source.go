// Package source reads raw post documents for the content store.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/eringen/pubcontent/content"
)

// DefaultExtensions are the file extensions treated as post documents.
var DefaultExtensions = []string{".md", ".markdown"}

// Loader fetches the full set of raw documents. A Loader error means the
// whole fetch failed; per-document problems are the content store's concern.
type Loader interface {
	Fetch(ctx context.Context) ([]content.Source, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]content.Source, error)

// Fetch calls f.
func (f LoaderFunc) Fetch(ctx context.Context) ([]content.Source, error) {
	return f(ctx)
}

// Static returns a Loader that always yields sources.
func Static(sources ...content.Source) Loader {
	return LoaderFunc(func(context.Context) ([]content.Source, error) {
		return sources, nil
	})
}

// MatchExt reports whether name ends in one of exts (case-insensitive).
// An empty exts means DefaultExtensions.
func MatchExt(name string, exts []string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// FSLoader walks a file system for post documents.
type FSLoader struct {
	FS   fs.FS
	Exts []string
}

// Dir returns a loader over the directory tree rooted at root.
func Dir(root string, exts ...string) *FSLoader {
	return &FSLoader{FS: os.DirFS(root), Exts: exts}
}

// Fetch returns one source per matching file, identified by its
// slash-separated path relative to the root, sorted by path.
func (l *FSLoader) Fetch(ctx context.Context) ([]content.Source, error) {
	var sources []content.Source
	err := fs.WalkDir(l.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !MatchExt(p, l.Exts) {
			return nil
		}
		data, err := fs.ReadFile(l.FS, p)
		if err != nil {
			return fmt.Errorf("source: read %s: %w", p, err)
		}
		sources = append(sources, content.Source{ID: p, Text: string(data)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

// ReadAll reads an object body into a source, closing the body.
func ReadAll(id string, body io.ReadCloser) (content.Source, error) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return content.Source{}, fmt.Errorf("source: read %s: %w", id, err)
	}
	return content.Source{ID: id, Text: string(data)}, nil
}
