package contact

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/minhle/portfolio/internal/middleware"
	"github.com/minhle/portfolio/internal/metrics"
	"github.com/minhle/portfolio/internal/ratelimit"
)

const maxBodyBytes = 64 << 10

// Envelope is the JSON response shape for every contact API outcome.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	ID      string   `json:"id,omitempty"`
}

// Health is the GET /api/contact body used by the client to pre-flight-check
// availability before rendering the form as usable.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Handler is the HTTP surface of the contact pipeline.
type Handler struct {
	svc           *Service
	limiter       *ratelimit.Limiter
	logger        *slog.Logger
	stats         *metrics.Metrics
	fallbackEmail string
}

// NewHandler wires the pipeline behind the /api/contact endpoint.
// fallbackEmail, when set, is included in degraded-mode responses so visitors
// still have a way to get in touch.
func NewHandler(svc *Service, limiter *ratelimit.Limiter, logger *slog.Logger, stats *metrics.Metrics, fallbackEmail string) *Handler {
	return &Handler{
		svc:           svc,
		limiter:       limiter,
		logger:        logger,
		stats:         stats,
		fallbackEmail: fallbackEmail,
	}
}

// Submit handles POST /api/contact. Steps run in a fixed order: config check,
// body parse, schema validation, rate limit, notification send, auto-reply.
// Each step has exactly one failure edge; there is no retry within a request.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.stats.ObserveRequest(r.URL.Path, r.Method, time.Since(start).Seconds())
	}()

	if !h.svc.Configured() {
		h.stats.ObserveSubmission(metrics.OutcomeUnavailable)
		h.writeJSON(w, http.StatusServiceUnavailable, Envelope{
			Success: false,
			Error:   h.unavailableMessage(),
		})
		return
	}

	var sub Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&sub); err != nil {
		h.stats.ObserveSubmission(metrics.OutcomeInvalid)
		h.writeJSON(w, http.StatusBadRequest, Envelope{
			Success: false,
			Error:   "Invalid request format.",
		})
		return
	}

	sub.Normalize()

	if fields := Validate(sub); len(fields) > 0 {
		h.stats.ObserveSubmission(metrics.OutcomeInvalid)
		h.writeJSON(w, http.StatusBadRequest, Envelope{
			Success: false,
			Error:   "Invalid form data.",
			Fields:  fields,
		})
		return
	}

	// Only valid submissions consume rate-limit budget.
	key := middleware.ClientIP(r)
	if !h.limiter.Allow(key) {
		h.stats.ObserveSubmission(metrics.OutcomeRateLimited)
		h.writeJSON(w, http.StatusTooManyRequests, Envelope{
			Success: false,
			Error:   "Too many requests. Please try again later.",
		})
		return
	}

	id, err := h.svc.Deliver(r.Context(), sub)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("contact delivery failed", "error", err, "ip", key, "request_id", middleware.RequestIDFromContext(r.Context()))
		}
		h.stats.ObserveSubmission(metrics.OutcomeSendFailed)
		h.writeJSON(w, http.StatusInternalServerError, Envelope{
			Success: false,
			Error:   "Failed to send message. Please try again later.",
		})
		return
	}

	if h.logger != nil {
		h.logger.Info("contact submission delivered", "id", id, "ip", key, "subject_len", len(sub.Subject), "message_len", len(sub.Message))
	}
	h.stats.ObserveSubmission(metrics.OutcomeAccepted)
	h.writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Message sent successfully! I will get back to you soon.",
		ID:      id,
	})
}

// Status handles GET /api/contact.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := "not_configured"
	if h.svc.Configured() {
		status = "configured"
	}
	h.writeJSON(w, http.StatusOK, Health{Status: status, Service: "contact-api"})
}

// Preflight handles OPTIONS /api/contact. The permissive CORS headers are
// applied by middleware; this just terminates the preflight.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unavailableMessage() string {
	if h.fallbackEmail != "" {
		return "The contact service is currently unavailable. Please email me directly at " + h.fallbackEmail + "."
	}
	return "The contact service is currently unavailable. Please try again later."
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"success":false,"error":"An unexpected error occurred. Please try again later."}`)
	}

	header := w.Header()
	header.Set("Content-Type", "application/json")
	header.Set("Cache-Control", "no-store, max-age=0")

	w.WriteHeader(status)
	_, _ = w.Write(data)
}
