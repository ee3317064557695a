// Package mail sends account emails: address verification and password reset.
package mail

import (
	"context"
	"fmt"
	"html"

	"chatapp/backend/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New returns an SMTP sender when SMTP is configured, and a LogSender otherwise.
func New(cfg *config.Config) Sender {
	if !cfg.MailEnabled() {
		logrus.Warn("SMTP_HOST not set, outgoing mail will only be logged")
		return LogSender{}
	}
	return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTPSender. When from is empty the username is used.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	if from == "" {
		from = username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail sent")
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, htmlBody string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("mail not sent (no SMTP configured)")
	return nil
}

const (
	VerificationSubject  = "Email Verification - Chat App"
	ResetPasswordSubject = "Password Reset - Chat App"
)

// VerificationEmail renders the body of the address verification email.
func VerificationEmail(link string) string {
	return linkBody("Please click the link below to verify your email:", link)
}

// ResetPasswordEmail renders the body of the password reset email.
func ResetPasswordEmail(link string) string {
	return linkBody("Click the link below to reset your password. The link expires shortly.", link)
}

func linkBody(text, link string) string {
	escaped := html.EscapeString(link)
	return fmt.Sprintf(`<p>%s</p><a href="%s">%s</a>`, html.EscapeString(text), escaped, escaped)
}
