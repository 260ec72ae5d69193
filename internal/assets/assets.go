// Package assets serves the site's pages and static files from either the
// embedded web tree or a directory on disk (dev mode).
package assets

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"time"
)

// SourceKind identifies whether assets are served from disk or embedded data.
type SourceKind int

const (
	// SourceEmbedded represents assets compiled into the binary.
	SourceEmbedded SourceKind = iota
	// SourceDisk represents assets served directly from disk (dev mode).
	SourceDisk
)

// String renders the kind for logs.
func (k SourceKind) String() string {
	if k == SourceDisk {
		return "disk"
	}
	return "embedded"
}

// Source exposes file-system helpers for embedded and disk assets.
type Source struct {
	FS          fs.FS
	kind        SourceKind
	root        string
	GeneratedAt time.Time
}

// NewEmbedded constructs a Source from an embedded filesystem.
func NewEmbedded(fsys fs.FS) (*Source, error) {
	if fsys == nil {
		return nil, errors.New("embedded filesystem is nil")
	}

	return &Source{
		FS:          fsys,
		kind:        SourceEmbedded,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// NewDisk constructs a Source from a directory on disk.
func NewDisk(root string) (*Source, error) {
	if root == "" {
		return nil, errors.New("disk root is empty")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, errors.New("disk root must be a directory")
	}

	return &Source{
		FS:          os.DirFS(root),
		kind:        SourceDisk,
		root:        root,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Kind returns the source type.
func (s *Source) Kind() SourceKind {
	if s == nil {
		return SourceDisk
	}
	return s.kind
}

// Exists reports whether the specified relative path exists.
func (s *Source) Exists(name string) bool {
	if s == nil || name == "" {
		return false
	}
	_, err := fs.Stat(s.FS, name)
	return err == nil
}

// PageExists reports whether the page file is present beneath pages/.
func (s *Source) PageExists(page string) bool {
	if page == "" {
		return false
	}
	return s.Exists(path.Join("pages", page))
}

// StaticExists reports whether the static asset exists beneath static/.
func (s *Source) StaticExists(rel string) bool {
	if rel == "" {
		return false
	}
	return s.Exists(path.Join("static", rel))
}

// ModTime returns the best-effort modification time for a file.
func (s *Source) ModTime(name string) (time.Time, error) {
	if s == nil {
		return time.Time{}, errors.New("source is nil")
	}

	info, err := fs.Stat(s.FS, name)
	if err != nil {
		return time.Time{}, err
	}

	if mt := info.ModTime(); !mt.IsZero() {
		return mt.UTC(), nil
	}

	// Embedded files carry a zero mod time.
	return s.GeneratedAt, nil
}

// Sub returns a view into a nested directory within the source.
func (s *Source) Sub(dir string) (fs.FS, error) {
	if s == nil {
		return nil, errors.New("source is nil")
	}

	return fs.Sub(s.FS, dir)
}

// Root returns the disk root (dev mode) or empty string for embedded.
func (s *Source) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}
