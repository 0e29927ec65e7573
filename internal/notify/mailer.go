// Package notify delivers confirmation mail and publish announcements.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

// SMTPMailer sends confirmation mail over SMTP with a bounded dial and IO deadline.
type SMTPMailer struct {
	conf    *config.SMTPConfig
	timeout time.Duration
}

func NewSMTPMailer(conf *config.SMTPConfig, timeout time.Duration) *SMTPMailer {
	return &SMTPMailer{
		conf:    conf,
		timeout: timeout,
	}
}

func (m *SMTPMailer) Confirm(ctx context.Context, c domain.Confirmation) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.send(ctx, c.Email, composeConfirmation(m.conf.From, c)); err != nil {
		zap.L().Warn("failed to send confirmation",
			zap.String("email", c.Email),
			zap.Uint("event_id", c.EventID),
			zap.Error(err))

		return fmt.Errorf("m.send -> %w: %w", domain.ErrDelivery, err)
	}

	zap.L().Info("confirmation sent", zap.String("email", c.Email), zap.String("ticket_id", c.TicketID))

	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.conf.Host, m.conf.Port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s -> %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.conf.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp.NewClient -> %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: m.conf.Host}); err != nil {
			return fmt.Errorf("client.StartTLS -> %w", err)
		}
	}
	if m.conf.Username != "" {
		auth := smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("client.Auth -> %w", err)
		}
	}

	if err = client.Mail(m.conf.From); err != nil {
		return fmt.Errorf("client.Mail -> %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("client.Rcpt -> %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("client.Data -> %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("w.Write -> %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("w.Close -> %w", err)
	}

	return client.Quit()
}

// LogMailer writes confirmations to the log instead of sending them.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) Confirm(_ context.Context, c domain.Confirmation) error {
	zap.L().Info("confirmation",
		zap.String("kind", string(c.Kind)),
		zap.String("email", c.Email),
		zap.Uint("event_id", c.EventID),
		zap.String("ticket_id", c.TicketID))

	return nil
}

func composeConfirmation(from string, c domain.Confirmation) []byte {
	var subject, body string
	switch c.Kind {
	case domain.ConfirmPurchase:
		subject = fmt.Sprintf("Your order for %s is confirmed", c.EventName)
		body = fmt.Sprintf("Hi %s,\n\nYour merchandise purchase for %q is confirmed.\nTicket: %s\n", c.Name, c.EventName, c.TicketID)
	case domain.ConfirmOrderApproved:
		subject = fmt.Sprintf("Your payment for %s was approved", c.EventName)
		body = fmt.Sprintf("Hi %s,\n\nYour payment for %q was approved and your order is confirmed.\nTicket: %s\n", c.Name, c.EventName, c.TicketID)
	default:
		subject = fmt.Sprintf("You are registered for %s", c.EventName)
		body = fmt.Sprintf("Hi %s,\n\nYour registration for %q is confirmed.\nTicket: %s\nShow the QR code of this ticket at the entrance.\n", c.Name, c.EventName, c.TicketID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", c.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)

	return []byte(b.String())
}
