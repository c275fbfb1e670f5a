package mail

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/spendly/spendly-backend/internal/config"
)

// SMTPSender delivers messages through an SMTP relay
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender. Auth is only used when a username is set.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if _, err := mail.ParseAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("invalid SMTP_FROM: %w", err)
	}

	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

// Send delivers msg. It satisfies the Client.Consume handler signature.
func (s *SMTPSender) Send(_ context.Context, msg *Message) error {
	from, err := mail.ParseAddress(s.from)
	if err != nil {
		return err
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	if err := s.send(s.addr, s.auth, from.Address, []string{to.Address}, buildMIME(s.from, to.String(), msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMIME(from, to string, msg *Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + msg.Timestamp.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
