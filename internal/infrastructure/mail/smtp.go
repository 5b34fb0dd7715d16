// Package mail delivers password reset emails.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

const resetSubject = "Reset your password"

var resetTemplate = template.Must(template.New("passwordReset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Reset your password</h2>
    <p>You requested to reset the password of your finance tracker account. Click the button below to choose a new one.</p>
    <a href="{{.ResetLink}}" style="display: inline-block; background-color: #0f766e; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Reset Password</a>
    <p>Or copy and paste this link into your browser:</p>
    <p style="word-break: break-all;">{{.ResetLink}}</p>
    <p>This link expires in {{.ValidFor}}. If you didn't request a reset, you can ignore this email.</p>
</body>
</html>
`))

// SMTPConfig holds the outbound mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	ValidFor string // human-readable reset link lifetime, e.g. "10 minutes"
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	log  zerolog.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.ValidFor == "" {
		cfg.ValidFor = "10 minutes"
	}
	return &SMTPMailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// SendPasswordReset mails resetLink to toEmail. Delivery errors are returned,
// not swallowed.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, toEmail, resetLink string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := renderReset(resetLink, m.cfg.ValidFor)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{toEmail}, buildMessage(m.cfg.From, toEmail, resetSubject, body)); err != nil {
		m.log.Error().Err(err).Str("email", toEmail).Msg("failed to send password reset email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", toEmail).Msg("password reset email sent")
	return nil
}

func renderReset(resetLink, validFor string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		ResetLink string
		ValidFor  string
	}{
		ResetLink: resetLink,
		ValidFor:  validFor,
	}
	if err := resetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		from, to, subject, body,
	))
}

// LogMailer records reset requests in the log instead of sending them. It is
// only wired in development. The link itself carries a live reset token and
// is emitted at debug level alone.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, toEmail, resetLink string) error {
	m.log.Warn().Str("email", toEmail).Msg("SMTP not configured, password reset email not sent")
	m.log.Debug().Str("email", toEmail).Str("reset_link", resetLink).Msg("password reset link")
	return nil
}
