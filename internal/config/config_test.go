package config

import (
	"strings"
	"testing"
)

const minimalConfig = `{
  "site": {
    "base_url": "https://example.com",
    "title": "Example",
    "description": "An example portfolio."
  },
  "routes": [
    {"path": "/", "page": "index.html", "title": "Home"}
  ],
  "headers": {
    "/": {"x-frame-options": "DENY"}
  },
  "content": {
    "profile": {"name": "Jane Doe"},
    "contact": {"email": "jane@example.com"}
  }
}`

func allPagesExist(string) bool { return true }

func TestParseAndValidate(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.Validate(allPagesExist); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cfg.Site.BaseURL != "https://example.com" {
		t.Fatalf("base_url = %q", cfg.Site.BaseURL)
	}
	if cfg.Content.Profile.Name != "Jane Doe" {
		t.Fatalf("profile name = %q", cfg.Content.Profile.Name)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"site": {}, "surprise": true}`))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestHeaderKeysAreCanonicalized(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	headers := cfg.HeaderDirectives("/")
	if got := headers["X-Frame-Options"]; got != "DENY" {
		t.Fatalf("X-Frame-Options = %q, headers = %v", got, headers)
	}
}

func TestValidateRequiresBaseURL(t *testing.T) {
	cfg, err := Parse([]byte(`{"routes": [{"path": "/", "page": "index.html"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.Validate(allPagesExist); err == nil {
		t.Fatal("expected base_url error")
	}
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	cfg, err := Parse([]byte(strings.Replace(minimalConfig, "https://example.com", "example.com", 1)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.Validate(allPagesExist); err == nil {
		t.Fatal("expected scheme/host error")
	}
}

func TestValidateRejectsDuplicateRoutes(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"site": {"base_url": "https://example.com"},
		"routes": [
			{"path": "/", "page": "index.html"},
			{"path": "/", "page": "other.html"}
		]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.Validate(allPagesExist); err == nil {
		t.Fatal("expected duplicate path error")
	}
}

func TestValidateRejectsMissingPage(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	err = cfg.Validate(func(string) bool { return false })
	if err == nil {
		t.Fatal("expected missing page error")
	}
}

func TestValidateRejectsPathTraversal(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"site": {"base_url": "https://example.com"},
		"routes": [{"path": "/", "page": "../secrets.html"}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.Validate(allPagesExist); err == nil {
		t.Fatal("expected traversal error")
	}
}

func TestDefaultTitleDerivedFromPage(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"site": {"base_url": "https://example.com"},
		"routes": [{"path": "/about-me", "page": "about-me.html"}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(allPagesExist); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if got := cfg.Routes[0].Title; got != "About me" {
		t.Fatalf("derived title = %q", got)
	}
}

func TestRoutesByPathSorted(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"site": {"base_url": "https://example.com"},
		"routes": [
			{"path": "/z", "page": "z.html", "title": "Z"},
			{"path": "/", "page": "index.html", "title": "Home"},
			{"path": "/a", "page": "a.html", "title": "A"}
		]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	routes := cfg.RoutesByPath()
	got := make([]string, 0, len(routes))
	for _, rt := range routes {
		got = append(got, rt.Path)
	}

	want := []string{"/", "/a", "/z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted paths = %v, want %v", got, want)
		}
	}
}

func TestEmailConfigured(t *testing.T) {
	full := Email{APIKey: "key", Domain: "mg.example.com", From: "no-reply@mg.example.com", Recipient: "me@example.com"}
	if !full.Configured() {
		t.Fatal("complete settings should report configured")
	}

	partial := full
	partial.Recipient = ""
	if partial.Configured() {
		t.Fatal("missing recipient should report unconfigured")
	}

	if (Email{}).Configured() {
		t.Fatal("empty settings should report unconfigured")
	}
}

func TestEmailValidate(t *testing.T) {
	// Absent settings are degraded mode, not an error.
	if err := (Email{}).Validate(); err != nil {
		t.Fatalf("empty settings: %v", err)
	}

	bad := Email{APIKey: "key", Domain: "https://mg.example.com", From: "no-reply@mg.example.com", Recipient: "me@example.com"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for domain with scheme")
	}

	bad = Email{APIKey: "key", Domain: "mg.example.com", From: "not-an-address", Recipient: "me@example.com"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for malformed sender")
	}
}

func TestLoadEmailFromEnvironment(t *testing.T) {
	t.Setenv("MAILGUN_API_KEY", "  key  ")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
	t.Setenv("CONTACT_FROM", "no-reply@mg.example.com")
	t.Setenv("CONTACT_RECIPIENT", "me@example.com")
	t.Setenv("APP_NAME", "Example")
	t.Setenv("APP_URL", "https://example.com")

	e, err := LoadEmail()
	if err != nil {
		t.Fatalf("load email: %v", err)
	}

	if e.APIKey != "key" {
		t.Fatalf("api key not trimmed: %q", e.APIKey)
	}
	if !e.Configured() {
		t.Fatal("expected configured")
	}
	if e.AppName != "Example" {
		t.Fatalf("app name = %q", e.AppName)
	}
}
