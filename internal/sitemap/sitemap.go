package sitemap

import (
	"encoding/xml"
	"errors"
	"net/url"
	"time"

	"github.com/minhle/portfolio/internal/config"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ErrBaseURLRequired indicates Build was called without a base URL.
var ErrBaseURLRequired = errors.New("base URL is required")

// Build generates a sitemap XML document for the provided routes. The root
// route gets top priority since the portfolio is effectively a one-page site.
func Build(baseURL string, routes []config.Route, generated time.Time) ([]byte, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	entries := make([]urlEntry, 0, len(routes))

	for _, rt := range routes {
		ref, err := url.Parse(rt.Path)
		if err != nil {
			return nil, err
		}

		entry := urlEntry{
			Loc:     base.ResolveReference(ref).String(),
			LastMod: generated.UTC().Format(time.RFC3339),
		}
		if rt.Path == "/" {
			entry.Priority = "1.0"
		}

		entries = append(entries, entry)
	}

	doc := urlSet{
		XMLNS: sitemapNS,
		URLs:  entries,
	}

	return xml.MarshalIndent(doc, "", "  ")
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}
