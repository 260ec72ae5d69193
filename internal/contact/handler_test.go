package contact

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/minhle/portfolio/internal/config"
	"github.com/minhle/portfolio/internal/mailer"
	"github.com/minhle/portfolio/internal/metrics"
	"github.com/minhle/portfolio/internal/ratelimit"
)

var errProviderDown = errors.New("provider down")

func newTestHandler(t *testing.T, fm *fakeMailer, cfg config.Email) (*Handler, *ratelimit.Limiter) {
	t.Helper()

	limiter := ratelimit.New(ratelimit.NewMemoryStore(), DefaultWindow, DefaultMaxRequests)
	svc := NewService(cfg, fm, discardLogger(), nil)
	h := NewHandler(svc, limiter, discardLogger(), metrics.New(), "owner@example.com")
	return h, limiter
}

func postJSON(h *Handler, body string, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}

	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

const validBody = `{"name":"Jane Doe","email":"jane@example.com","subject":"Hello there","message":"This is a test message."}`

func TestSubmitSuccess(t *testing.T) {
	fm := newFakeMailer()
	h, _ := newTestHandler(t, fm, testEmailConfig())

	rec := postJSON(h, validBody, "203.0.113.7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope: %+v", env)
	}
	if env.ID == "" {
		t.Fatal("expected provider message id in response")
	}
	if got := len(fm.sentEmails()); got != 2 {
		t.Fatalf("expected notification + auto-reply, got %d emails", got)
	}
}

func TestSubmitUnconfiguredReturns503(t *testing.T) {
	fm := newFakeMailer()
	fm.configured = false
	h, _ := newTestHandler(t, fm, config.Email{})

	rec := postJSON(h, validBody, "203.0.113.7")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if !strings.Contains(env.Error, "owner@example.com") {
		t.Fatalf("degraded response should include the direct-contact address: %s", env.Error)
	}
	if got := len(fm.sentEmails()); got != 0 {
		t.Fatalf("unconfigured endpoint must send zero emails, got %d", got)
	}
}

func TestSubmitMalformedBodyReturns400(t *testing.T) {
	fm := newFakeMailer()
	h, _ := newTestHandler(t, fm, testEmailConfig())

	rec := postJSON(h, `{"name": "Jane"`, "203.0.113.7")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := len(fm.sentEmails()); got != 0 {
		t.Fatalf("malformed body must send zero emails, got %d", got)
	}
}

func TestSubmitSchemaViolationReturns400WithFields(t *testing.T) {
	fm := newFakeMailer()
	h, _ := newTestHandler(t, fm, testEmailConfig())

	rec := postJSON(h, `{"name":"Jane Doe","email":"not-an-email","subject":"Hi","message":"short"}`, "203.0.113.7")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if len(env.Fields) == 0 {
		t.Fatal("expected machine-readable violated fields")
	}

	want := map[string]bool{"email": false, "subject": false, "message": false}
	for _, f := range env.Fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Fatalf("expected %q in violated fields, got %v", f, env.Fields)
		}
	}

	if got := len(fm.sentEmails()); got != 0 {
		t.Fatalf("invalid submission must send zero emails, got %d", got)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	fm := newFakeMailer()
	h, _ := newTestHandler(t, fm, testEmailConfig())

	for i := 0; i < DefaultMaxRequests; i++ {
		rec := postJSON(h, validBody, "203.0.113.7")
		if rec.Code != http.StatusOK {
			t.Fatalf("submission %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := postJSON(h, validBody, "203.0.113.7")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	// 3 accepted submissions, 2 emails each.
	if got := len(fm.sentEmails()); got != DefaultMaxRequests*2 {
		t.Fatalf("rate-limited submission must send zero emails, got %d total", got)
	}

	// A different caller is unaffected.
	rec = postJSON(h, validBody, "198.51.100.9")
	if rec.Code != http.StatusOK {
		t.Fatalf("other caller: status = %d, want 200", rec.Code)
	}
}

func TestSubmitRateLimitWindowElapses(t *testing.T) {
	fm := newFakeMailer()

	current := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), DefaultWindow, DefaultMaxRequests).
		WithClock(func() time.Time { return current })

	svc := NewService(testEmailConfig(), fm, discardLogger(), nil)
	h := NewHandler(svc, limiter, discardLogger(), metrics.New(), "")

	for i := 0; i < DefaultMaxRequests; i++ {
		postJSON(h, validBody, "203.0.113.7")
	}
	if rec := postJSON(h, validBody, "203.0.113.7"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	current = current.Add(DefaultWindow + time.Second)

	if rec := postJSON(h, validBody, "203.0.113.7"); rec.Code != http.StatusOK {
		t.Fatalf("after window: status = %d, want 200", rec.Code)
	}
}

func TestSubmitInvalidDoesNotConsumeBudget(t *testing.T) {
	fm := newFakeMailer()
	h, limiter := newTestHandler(t, fm, testEmailConfig())

	for i := 0; i < 10; i++ {
		postJSON(h, `{"name":"","email":"","subject":"","message":""}`, "203.0.113.7")
	}

	if got := limiter.Remaining("203.0.113.7"); got != DefaultMaxRequests {
		t.Fatalf("invalid submissions consumed budget: remaining = %d, want %d", got, DefaultMaxRequests)
	}
}

func TestSubmitNotificationFailureReturns500(t *testing.T) {
	fm := newFakeMailer()
	fm.fail = func(email mailer.Email) error {
		return errProviderDown
	}
	h, _ := newTestHandler(t, fm, testEmailConfig())

	rec := postJSON(h, validBody, "203.0.113.7")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if strings.Contains(env.Error, "provider") {
		t.Fatalf("provider internals must not leak: %s", env.Error)
	}
}

func TestSubmitAutoReplyFailureStillSucceeds(t *testing.T) {
	fm := newFakeMailer()
	fm.fail = func(email mailer.Email) error {
		if isAutoReply(email) {
			return errProviderDown
		}
		return nil
	}
	h, _ := newTestHandler(t, fm, testEmailConfig())

	rec := postJSON(h, validBody, "203.0.113.7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !env.Success {
		t.Fatalf("auto-reply failure must be invisible to the caller: %+v", env)
	}
}

func TestStatusEndpoint(t *testing.T) {
	fm := newFakeMailer()
	h, _ := newTestHandler(t, fm, testEmailConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var health Health
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "configured" || health.Service != "contact-api" {
		t.Fatalf("unexpected health payload: %+v", health)
	}

	fm.configured = false
	rec = httptest.NewRecorder()
	h.Status(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "not_configured" {
		t.Fatalf("expected not_configured, got %s", health.Status)
	}
}

func TestSubmitMissingIPFallsBackToSharedBucket(t *testing.T) {
	fm := newFakeMailer()
	h, limiter := newTestHandler(t, fm, testEmailConfig())

	// No forwarding headers and no parseable RemoteAddr: all such callers
	// share the "unknown" bucket.
	for i := 0; i < DefaultMaxRequests; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(validBody))
		req.RemoteAddr = ""
		rec := httptest.NewRecorder()
		h.Submit(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("submission %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	if got := limiter.Remaining("unknown"); got != 0 {
		t.Fatalf("expected shared unknown bucket to be exhausted, remaining = %d", got)
	}
}
