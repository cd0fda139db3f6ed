package mail

import (
	"fmt"
	"net/smtp"

	"shoplytics/internal/config"
)

// Mailer sends transactional mail (OTP codes).
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	config *config.Config
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{config: cfg}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	var auth smtp.Auth
	if m.config.SMTPUsername != "" && m.config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", m.config.SMTPUsername, m.config.SMTPPassword, m.config.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%s", m.config.SMTPHost, m.config.SMTPPort)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.config.SMTPSender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, m.config.SMTPSender, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
