package robots

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildDefaultPolicy(t *testing.T) {
	payload, err := Build("https://example.com", "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out := string(payload)

	if !strings.Contains(out, "User-agent: *") {
		t.Fatalf("missing user-agent in:\n%s", out)
	}
	if !strings.Contains(out, "Disallow: /api/") {
		t.Fatalf("API endpoints should be excluded from crawling:\n%s", out)
	}
	if !strings.Contains(out, "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("missing sitemap in:\n%s", out)
	}
}

func TestBuildCustomPolicyGetsSitemapAppended(t *testing.T) {
	payload, err := Build("https://example.com", "User-agent: *\nDisallow: /private/")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out := string(payload)

	if !strings.Contains(out, "Disallow: /private/") {
		t.Fatalf("custom policy lost:\n%s", out)
	}
	if !strings.Contains(out, "Sitemap: https://example.com/sitemap.xml") {
		t.Fatalf("sitemap not appended:\n%s", out)
	}
}

func TestBuildRewritesStaleSitemap(t *testing.T) {
	payload, err := Build("https://example.com", "User-agent: *\nSitemap: https://old.example.com/sitemap.xml")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	out := string(payload)

	if strings.Contains(out, "old.example.com") {
		t.Fatalf("stale sitemap survived:\n%s", out)
	}
	if strings.Count(out, "Sitemap:") != 1 {
		t.Fatalf("expected exactly one sitemap line:\n%s", out)
	}
}

func TestBuildRequiresBaseURL(t *testing.T) {
	_, err := Build("", "")
	if !errors.Is(err, ErrBaseURLRequired) {
		t.Fatalf("err = %v, want ErrBaseURLRequired", err)
	}
}
