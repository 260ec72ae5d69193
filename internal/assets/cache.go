package assets

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

// Cache stores asset bytes and their cache-validation metadata in memory.
type Cache struct {
	fs          fs.FS
	defaultTime time.Time
	modTimeFn   func(string) (time.Time, error)
	assets      sync.Map // string -> *CachedAsset
}

// CachedAsset is the cached representation of a static asset.
type CachedAsset struct {
	Path         string
	Body         []byte
	ETag         string
	LastModified time.Time
	MIME         string
	Size         int64
}

// NewCache constructs a Cache backed by the provided filesystem.
func NewCache(fsys fs.FS, defaultTime time.Time, modTime func(string) (time.Time, error)) *Cache {
	return &Cache{
		fs:          fsys,
		defaultTime: defaultTime,
		modTimeFn:   modTime,
	}
}

// Get returns the cached asset for the relative path, loading it on first use.
func (c *Cache) Get(rel string) (*CachedAsset, error) {
	if c == nil {
		return nil, errors.New("cache is nil")
	}

	rel = path.Clean(strings.TrimPrefix(rel, "/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil, fs.ErrNotExist
	}

	if cached, ok := c.assets.Load(rel); ok {
		return cached.(*CachedAsset), nil
	}

	body, err := fs.ReadFile(c.fs, rel)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(body)

	asset := &CachedAsset{
		Path:         rel,
		Body:         body,
		ETag:         fmt.Sprintf("\"%x\"", sum[:]),
		LastModified: c.defaultTime,
		MIME:         MIMEType(rel),
		Size:         int64(len(body)),
	}

	if c.modTimeFn != nil {
		if mt, err := c.modTimeFn(rel); err == nil && !mt.IsZero() {
			asset.LastModified = mt.UTC()
		}
	}

	c.assets.Store(rel, asset)

	return asset, nil
}

// Invalidate drops a cached asset (dev mode hot reload).
func (c *Cache) Invalidate(rel string) {
	if c == nil {
		return
	}
	c.assets.Delete(path.Clean(strings.TrimPrefix(rel, "/")))
}

// MIMEType maps known asset extensions to content types.
func MIMEType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	case ".webp":
		return "image/webp"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".xml":
		return "application/xml"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
