package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

func TestExactMatch(t *testing.T) {
	r := New()
	r.Handle("/about", okHandler("about"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "about" {
		t.Fatalf("body = %q, want %q", rec.Body.String(), "about")
	}
}

func TestMethodDispatch(t *testing.T) {
	r := New()
	r.HandleMethod(http.MethodPost, "/api/contact", okHandler("post"))
	r.HandleMethod(http.MethodGet, "/api/contact", okHandler("get"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if rec.Body.String() != "post" {
		t.Fatalf("POST body = %q, want %q", rec.Body.String(), "post")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contact", nil))
	if rec.Body.String() != "get" {
		t.Fatalf("GET body = %q, want %q", rec.Body.String(), "get")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := New()
	r.HandleMethod(http.MethodPost, "/api/contact", okHandler("post"))
	r.HandleMethod(http.MethodGet, "/api/contact", okHandler("get"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/contact", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("Allow = %q, want %q", allow, "GET, POST")
	}
}

func TestPrefixMatch(t *testing.T) {
	r := New()
	r.HandlePrefix("/static/", okHandler("asset"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))

	if rec.Body.String() != "asset" {
		t.Fatalf("body = %q, want %q", rec.Body.String(), "asset")
	}
}

func TestExactBeatsPrefix(t *testing.T) {
	r := New()
	r.HandlePrefix("/static/", okHandler("prefix"))
	r.Handle("/static/special", okHandler("exact"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/special", nil))

	if rec.Body.String() != "exact" {
		t.Fatalf("body = %q, want %q", rec.Body.String(), "exact")
	}
}

func TestNotFoundFallback(t *testing.T) {
	r := New()
	r.NotFound(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("custom 404"))
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec.Body.String() != "custom 404" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestDefaultNotFound(t *testing.T) {
	r := New()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
