package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer is the outbound email capability. Send renders the named template
// with data and delivers the result.
type Mailer interface {
	Send(ctx context.Context, to, subject, templateName string, data any) error
}

// SMTPMailer delivers templated mail over SMTP.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	from      string
	templates *template.Template
}

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTP mailer with the embedded template set.
func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, username, password),
		from:      from,
		templates: templates,
	}, nil
}

// Send renders the template and delivers it. The context is honored up to the
// dial; gomail itself does not support cancellation mid-send.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("render mail template %s: %w", templateName, err)
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
