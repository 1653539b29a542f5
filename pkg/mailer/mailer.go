// Package mailer delivers account notifications.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"user-management/pkg/utils"

	"go.uber.org/zap"
)

const welcomeSubject = "Welcome aboard"

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>Hi {{.Name}},</h2>
  <p>Your account has been created. You can now sign in with <strong>{{.Email}}</strong>.</p>
  <p>If this was not you, please contact support.</p>
</body>
</html>
`))

type Notifier interface {
	SendWelcome(ctx context.Context, to, displayName string) error
}

// RenderWelcome returns the HTML body of the welcome message.
func RenderWelcome(to, displayName string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Name, Email string }{Name: displayName, Email: to}
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render welcome template: %w", err)
	}
	return buf.String(), nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// ==================== SMTP ====================

type SMTPNotifier struct {
	cfg utils.EmailConfig
	log *zap.Logger
}

func NewSMTPNotifier(cfg utils.EmailConfig, log *zap.Logger) *SMTPNotifier {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPNotifier{cfg: cfg, log: log}
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, to, displayName string) error {
	body, err := RenderWelcome(to, displayName)
	if err != nil {
		return err
	}
	if err := n.send(ctx, to, welcomeSubject, body); err != nil {
		return fmt.Errorf("send welcome to %s: %w", to, err)
	}
	n.log.Info("Welcome email sent", zap.String("email", to))
	return nil
}

// send uses implicit TLS on port 465 and STARTTLS everywhere else.
func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	tlsConfig := &tls.Config{ServerName: n.cfg.Host}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	var err error
	if n.cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if n.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if n.cfg.User != "" {
		auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(n.cfg.From, to, subject, body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// ==================== LOG ====================

// LogNotifier writes the welcome message to the log instead of sending it.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendWelcome(_ context.Context, to, displayName string) error {
	n.log.Info("Welcome email (not sent, SMTP disabled)",
		zap.String("email", to),
		zap.String("display_name", displayName),
		zap.String("subject", welcomeSubject),
	)
	return nil
}

// New picks the SMTP notifier when a relay is configured.
func New(cfg utils.EmailConfig, log *zap.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg, log)
	}
	return NewLogNotifier(log)
}
