// Package mailer abstracts the transactional email provider behind a small
// send interface so the contact pipeline can swap providers (or a fake in
// tests) without touching request handling.
package mailer

import "context"

// Email is one outbound transactional message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	Headers map[string]string
}

// Mailer delivers a single email and reports the provider-assigned message id.
type Mailer interface {
	// Configured reports whether the backing provider has credentials.
	Configured() bool
	// Send delivers the email, returning the provider message id on success.
	Send(ctx context.Context, email Email) (string, error)
}
