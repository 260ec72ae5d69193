package errors

import (
	"strings"
	"testing"

	"github.com/minhle/portfolio/internal/pages"
)

func TestDefault404(t *testing.T) {
	out := string(Default404(pages.PageData{}))

	if !strings.Contains(out, "404") {
		t.Fatalf("missing status in:\n%s", out)
	}
	if !strings.Contains(out, `content="noindex"`) {
		t.Fatalf("error pages must not be indexed:\n%s", out)
	}
}

func TestDefault500(t *testing.T) {
	out := string(Default500(pages.PageData{}))

	if !strings.Contains(out, "500") {
		t.Fatalf("missing status in:\n%s", out)
	}
	if !strings.Contains(out, `content="noindex"`) {
		t.Fatalf("error pages must not be indexed:\n%s", out)
	}
}
