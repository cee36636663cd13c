// Package mailer renders queued messages into emails and sends them over
// SMTP.
package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"admissions_service/internal/config"
	"admissions_service/internal/models"

	"gopkg.in/gomail.v2"
)

var ErrUnknownPurpose = errors.New("unknown message purpose")

type Email struct {
	Subject string
	HTML    string
}

var templates = template.Must(template.New("mail").Parse(`
{{define "email_verification"}}
<h2>Welcome!</h2>
<p>Dear {{.Recipient}},</p>
<p>Thank you for registering. Please verify your email by clicking the link below:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
{{end}}

{{define "password_reset"}}
<h2>Password reset</h2>
<p>Dear {{.Recipient}},</p>
<p>We received a request to reset your password. Use the link below to choose a new one:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in one hour. If you did not ask for a reset, ignore this email.</p>
{{end}}

{{define "admission_reviewed"}}
<h2>Admission application update</h2>
<p>Dear {{.Recipient}},</p>
<p>The admission application for {{.StudentName}} has been {{.Status}}.</p>
{{if .Notes}}<p><strong>Notes:</strong> {{.Notes}}</p>{{end}}
<p>Best regards,<br>Admissions Office</p>
{{end}}
`))

// Render builds the subject and HTML body for msg. Values are escaped.
func Render(msg models.Message) (Email, error) {
	const op = "mailer.Render"

	var subject string

	switch msg.Purpose {
	case models.PurposeEmailVerification:
		subject = "Verify your email"
	case models.PurposePasswordReset:
		subject = "Reset your password"
	case models.PurposeAdmissionReviewed:
		subject = "Admission application reviewed"
		if msg.Status == models.StatusApproved {
			subject = "Admission application approved"
		}
	default:
		return Email{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownPurpose, msg.Purpose)
	}

	if msg.Recipient == "" {
		msg.Recipient = msg.Email
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(msg.Purpose), msg); err != nil {
		return Email{}, fmt.Errorf("%s: %w", op, err)
	}

	return Email{Subject: subject, HTML: buf.String()}, nil
}

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg config.Email) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (m *Mailer) Send(to string, email Email) error {
	const op = "mailer.Send"

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
