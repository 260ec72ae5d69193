package mailer

import (
	"context"
	"errors"
	"fmt"

	mailgun "github.com/mailgun/mailgun-go/v5"
)

// Mailgun sends email through the Mailgun messages API.
type Mailgun struct {
	domain string
	mg     mailgun.Mailgun
}

// NewMailgun constructs a Mailgun mailer. When no explicit client is supplied
// and an API key is present, a default client is created. An empty API key
// yields an unconfigured mailer rather than an error so the caller can serve
// degraded responses.
func NewMailgun(apiKey, domain string, mg mailgun.Mailgun) *Mailgun {
	if mg == nil && apiKey != "" {
		mg = mailgun.NewMailgun(apiKey)
	}
	return &Mailgun{domain: domain, mg: mg}
}

// Configured reports whether the mailer can reach the provider.
func (m *Mailgun) Configured() bool {
	if m == nil {
		return false
	}
	return m.mg != nil && m.domain != ""
}

// Send delivers one email via Mailgun.
func (m *Mailgun) Send(ctx context.Context, email Email) (string, error) {
	if !m.Configured() {
		return "", errors.New("mailgun mailer is not configured")
	}
	if email.To == "" {
		return "", errors.New("recipient is required")
	}

	msg := mailgun.NewMessage(m.domain, email.From, email.Subject, email.Text)
	if err := msg.AddRecipient(email.To); err != nil {
		return "", fmt.Errorf("add recipient: %w", err)
	}
	if email.ReplyTo != "" {
		msg.SetReplyTo(email.ReplyTo)
	}
	if email.HTML != "" {
		msg.SetHTML(email.HTML)
	}
	for key, val := range email.Headers {
		msg.AddHeader(key, val)
	}

	resp, err := m.mg.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}

	return resp.ID, nil
}
