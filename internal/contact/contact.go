// Package contact implements the contact-form pipeline: payload validation,
// notification email to the site owner, and a best-effort auto-reply to the
// submitter. The server never trusts client-side validation; every submission
// is re-checked here before any email is attempted.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/minhle/portfolio/internal/config"
	"github.com/minhle/portfolio/internal/mailer"
	"github.com/minhle/portfolio/internal/metrics"
)

// Rate limit defaults: three submissions per caller per trailing 15 minutes.
const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxRequests = 3
)

// Submission is one contact form payload. Field bounds follow the strict
// variant: short subjects and one-word messages are rejected outright.
type Submission struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=5,max=200"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

// Normalize trims surrounding whitespace so length bounds apply to content.
func (s *Submission) Normalize() {
	if s == nil {
		return
	}
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the wire field names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks the submission against the schema and returns the violated
// field names, or nil when the submission is acceptable.
func Validate(sub Submission) []string {
	err := validate.Struct(sub)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"body"}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// Service orchestrates email delivery for validated submissions.
type Service struct {
	cfg    config.Email
	mailer mailer.Mailer
	logger *slog.Logger
	stats  *metrics.Metrics

	now         func() time.Time
	newEntityID func() string
}

// NewService constructs a Service. stats may be nil.
func NewService(cfg config.Email, m mailer.Mailer, logger *slog.Logger, stats *metrics.Metrics) *Service {
	return &Service{
		cfg:         cfg,
		mailer:      m,
		logger:      logger,
		stats:       stats,
		now:         time.Now,
		newEntityID: func() string { return "contact-" + uuid.NewString() },
	}
}

// WithClock overrides the service time source. Useful for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Configured reports whether the service can deliver email: credentials,
// sender, and recipient must all be present.
func (s *Service) Configured() bool {
	if s == nil {
		return false
	}
	return s.cfg.Configured() && s.mailer != nil && s.mailer.Configured()
}

// AppName returns the display name used in email templates.
func (s *Service) AppName() string {
	if s.cfg.AppName != "" {
		return s.cfg.AppName
	}
	return "Portfolio"
}

// Deliver sends the owner notification and then attempts the auto-reply.
// The returned id is the provider message id of the notification. A failed
// notification aborts the request; a failed auto-reply is logged and counted
// but never surfaces to the caller, whose outcome was already decided.
func (s *Service) Deliver(ctx context.Context, sub Submission) (string, error) {
	if !s.Configured() {
		return "", errors.New("contact service is not configured")
	}

	data := templateData{
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   sub.Subject,
		Message:   sub.Message,
		AppName:   s.AppName(),
		AppURL:    s.cfg.AppURL,
		Timestamp: s.now().UTC().Format("Jan 2, 2006 15:04:05 MST"),
	}

	html, err := renderNotificationHTML(data)
	if err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}

	id, err := s.mailer.Send(ctx, mailer.Email{
		From:    s.cfg.From,
		To:      s.cfg.Recipient,
		Subject: "New Contact: " + sub.Subject,
		HTML:    html,
		Text:    renderNotificationText(data),
		ReplyTo: sub.Email,
		Headers: map[string]string{
			"X-Priority":  "3",
			"X-Mailer":    "Portfolio Contact Form",
			"X-Entity-ID": s.newEntityID(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("send notification: %w", err)
	}

	s.sendAutoReply(ctx, sub, data)

	return id, nil
}

// sendAutoReply is best effort: its failure is recorded for operators but
// does not change the already-committed response.
func (s *Service) sendAutoReply(ctx context.Context, sub Submission, data templateData) {
	html, err := renderAutoReplyHTML(data)
	if err != nil {
		s.logAutoReplyFailure(sub.Email, err)
		return
	}

	_, err = s.mailer.Send(ctx, mailer.Email{
		From:    s.cfg.From,
		To:      sub.Email,
		Subject: "Thank you for contacting " + s.AppName(),
		HTML:    html,
		Text:    renderAutoReplyText(data),
		Headers: map[string]string{
			"X-Priority":               "3",
			"X-Mailer":                 "Portfolio Auto-Reply System",
			"X-Auto-Response-Suppress": "DR, RN, NRN, OOF, AutoReply",
			"Auto-Submitted":           "auto-replied",
		},
	})
	if err != nil {
		s.logAutoReplyFailure(sub.Email, err)
	}
}

func (s *Service) logAutoReplyFailure(to string, err error) {
	if s.logger != nil {
		s.logger.Error("auto-reply send failed", "to", to, "error", err)
	}
	s.stats.ObserveAutoReplyFailure()
}
