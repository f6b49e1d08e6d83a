// Package mailer sends escalation and notification email through Gmail's
// SMTP endpoint using an app password.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/escalation"
	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/memory"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = "465"
)

type Mailer struct {
	address             string
	appPassword         string
	escalationRecipient string
	// send is swappable for tests; defaults to SMTP over TLS.
	send func(to string, msg []byte) error
}

func New(address, appPassword, escalationRecipient string) *Mailer {
	m := &Mailer{
		address:             address,
		appPassword:         appPassword,
		escalationRecipient: escalationRecipient,
	}
	m.send = m.sendSMTP
	return m
}

// SendEscalation implements escalation.Notifier.
func (m *Mailer) SendEscalation(ctx context.Context, p Payload) error {
	subject := fmt.Sprintf("TeachPro: Escalation Request from %s", orDefault(p.ParentName, "Unknown User"))
	body := escalationBody(p)
	return m.SendNotification(ctx, subject, body, m.escalationRecipient)
}

// Payload aliases the escalation payload so callers wire the mailer straight
// into the gate.
type Payload = escalation.Payload

// SendNotification sends a plain-text email to an arbitrary recipient.
func (m *Mailer) SendNotification(ctx context.Context, subject, body, recipient string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.address, recipient, subject, body))
	if err := m.send(recipient, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}

func (m *Mailer) sendSMTP(to string, msg []byte) error {
	conn, err := tls.Dial("tcp", smtpHost+":"+smtpPort, &tls.Config{ServerName: smtpHost})
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	client, err := smtp.NewClient(conn, smtpHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	auth := smtp.PlainAuth("", m.address, m.appPassword, smtpHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.address); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

func escalationBody(p Payload) string {
	return fmt.Sprintf(`🔔 New Escalation Request

📅 Time: %s

👤 Parent Information:
• Name: %s
• Username: @%s
• User ID: %d

💬 Conversation Summary:
%s

📝 Full Conversation History:
%s

⚠️ Action Required:
Please follow up with the parent as soon as possible. The conversation has been escalated due to a request for human assistance.

Best regards,
TeachPro Bot`,
		time.Now().Format("2006-01-02 15:04:05"),
		orDefault(p.ParentName, "Not provided"),
		orDefault(p.Username, "Not provided"),
		p.UserID,
		escalation.ContextText(p),
		formatHistory(p.History))
}

func formatHistory(history []memory.Entry) string {
	if len(history) == 0 {
		return "No conversation history available."
	}
	var lines []string
	for _, e := range history {
		role := "Assistant"
		if e.Role == memory.RoleUser {
			role = "Parent"
		}
		content := strings.TrimSpace(e.Content)
		if content != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", role, content))
		}
	}
	return strings.Join(lines, "\n\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
