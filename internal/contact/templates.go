package contact

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

// templateData feeds both the notification and auto-reply templates.
type templateData struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	AppName   string
	AppURL    string
	Timestamp string
}

const notificationHTMLSource = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>New Contact Form Submission</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #000; color: white; padding: 20px; border-radius: 8px 8px 0 0; text-align: center;">
      <h1 style="margin: 0; font-size: 24px;">New Contact from <span style="color: #06b6d4;">{{.AppName}}</span></h1>
    </div>
    <div style="background-color: white; padding: 30px; border-radius: 0 0 8px 8px;">
      <h2 style="color: #06b6d4; font-size: 20px; border-bottom: 2px solid #06b6d4; padding-bottom: 10px;">Contact Information</h2>
      <table style="width: 100%; border-collapse: collapse;">
        <tr style="border-bottom: 1px solid #eee;">
          <td style="padding: 15px; font-weight: bold; color: #555; width: 30%;">Name:</td>
          <td style="padding: 15px; color: #333;">{{.Name}}</td>
        </tr>
        <tr style="border-bottom: 1px solid #eee;">
          <td style="padding: 15px; font-weight: bold; color: #555;">Email:</td>
          <td style="padding: 15px;"><a href="mailto:{{.Email}}" style="color: #06b6d4;">{{.Email}}</a></td>
        </tr>
        <tr>
          <td style="padding: 15px; font-weight: bold; color: #555;">Subject:</td>
          <td style="padding: 15px; color: #333;">{{.Subject}}</td>
        </tr>
      </table>
      <h3 style="color: #06b6d4; border-bottom: 2px solid #06b6d4; padding-bottom: 5px;">Message:</h3>
      <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; border-left: 4px solid #06b6d4; white-space: pre-wrap;">{{.Message}}</div>
      <div style="text-align: center; margin: 30px 0;">
        <a href="mailto:{{.Email}}?subject=Re: {{.Subject}}" style="background-color: #06b6d4; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; display: inline-block; font-weight: bold;">Reply to {{.Name}}</a>
      </div>
      <div style="border-top: 2px solid #eee; padding-top: 20px; font-size: 12px; color: #888; text-align: center;">
        <p style="margin: 5px 0;"><strong>Received:</strong> {{.Timestamp}}</p>
        <p style="margin: 5px 0;">This message was sent from the contact form on {{if .AppURL}}<a href="{{.AppURL}}" style="color: #06b6d4;">{{.AppName}}</a>{{else}}{{.AppName}}{{end}}</p>
      </div>
    </div>
  </div>
</body>
</html>
`

const autoReplyHTMLSource = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Thank you for your message</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #000; color: white; padding: 25px; border-radius: 8px 8px 0 0; text-align: center;">
      <h1 style="margin: 0; font-size: 28px;">Thank you, <span style="color: #06b6d4;">{{.Name}}</span>!</h1>
    </div>
    <div style="background-color: white; padding: 40px; border-radius: 0 0 8px 8px;">
      <p style="font-size: 18px;">Hi <strong>{{.Name}}</strong>,</p>
      <p style="font-size: 16px;">Thank you for reaching out through my portfolio contact form. I've received your message and will get back to you as soon as possible.</p>
      <div style="background-color: #f0f9ff; border-left: 4px solid #06b6d4; padding: 20px; margin: 25px 0; border-radius: 0 8px 8px 0;">
        <p style="margin: 0; font-size: 16px; color: #0c4a6e;"><strong>Response Time:</strong> I typically respond within 24-48 hours during business days.</p>
      </div>
      <div style="border-top: 2px solid #eee; padding-top: 25px; margin-top: 30px;">
        <p style="margin-bottom: 5px; font-size: 16px;">Best regards,<br><strong style="color: #06b6d4; font-size: 18px;">{{.AppName}}</strong></p>
      </div>
    </div>
  </div>
</body>
</html>
`

const notificationTextSource = `New Contact from {{.AppName}}
============================

Contact Information:
-------------------
Name: {{.Name}}
Email: {{.Email}}
Subject: {{.Subject}}

Message:
--------
{{.Message}}

---
Received on: {{.Timestamp}}
This message was sent from the contact form on {{.AppName}}
`

const autoReplyTextSource = `Hi {{.Name}},

Thank you for reaching out through my portfolio contact form.
I've received your message and will get back to you as soon as possible.

Response Time: I typically respond within 24-48 hours during business days.

Best regards,
{{.AppName}}
`

var (
	notificationHTMLTemplate = template.Must(template.New("notification.html").Parse(notificationHTMLSource))
	autoReplyHTMLTemplate    = template.Must(template.New("autoreply.html").Parse(autoReplyHTMLSource))
	notificationTextTemplate = texttemplate.Must(texttemplate.New("notification.txt").Parse(notificationTextSource))
	autoReplyTextTemplate    = texttemplate.Must(texttemplate.New("autoreply.txt").Parse(autoReplyTextSource))
)

func renderNotificationHTML(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := notificationHTMLTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute notification template: %w", err)
	}
	return buf.String(), nil
}

func renderAutoReplyHTML(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := autoReplyHTMLTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute auto-reply template: %w", err)
	}
	return buf.String(), nil
}

// Plain-text variants carry the message verbatim for deliverability.
func renderNotificationText(data templateData) string {
	var buf bytes.Buffer
	if err := notificationTextTemplate.Execute(&buf, data); err != nil {
		return fallbackText(data)
	}
	return buf.String()
}

func renderAutoReplyText(data templateData) string {
	var buf bytes.Buffer
	if err := autoReplyTextTemplate.Execute(&buf, data); err != nil {
		return "Thank you for your message. I will get back to you soon."
	}
	return buf.String()
}

func fallbackText(data templateData) string {
	var b strings.Builder
	b.WriteString("Name: ")
	b.WriteString(data.Name)
	b.WriteString("\nEmail: ")
	b.WriteString(data.Email)
	b.WriteString("\nSubject: ")
	b.WriteString(data.Subject)
	b.WriteString("\n\n")
	b.WriteString(data.Message)
	return b.String()
}
