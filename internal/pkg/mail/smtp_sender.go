package mail

import (
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/formgate/formgate/internal/pkg/env"
)

// SMTPSender sends emails via SMTP as multipart/alternative (plain text plus
// HTML).
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

// NewSMTPSender builds a sender from SMTP_* environment variables.
func NewSMTPSender() *SMTPSender {
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", sender)
	}
	return &SMTPSender{
		host:     env.GetEnv("SMTP_HOST", ""),
		port:     env.GetEnv("SMTP_PORT", "587"),
		username: env.GetEnv("SMTP_USERNAME", ""),
		password: env.GetEnv("SMTP_PASSWORD", ""),
		sender:   sender,
	}
}

func (s *SMTPSender) Send(to string, subject string, htmlBody string, textBody string) error {
	var auth smtp.Auth
	if s.username != "" && s.password != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	const boundary = "formgate-alt-boundary"
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", s.sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary) +
			fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			textBody + "\r\n" +
			fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			htmlBody + "\r\n" +
			fmt.Sprintf("--%s--\r\n", boundary),
	)

	err := smtp.SendMail(addr, auth, s.sender, []string{to}, msg)
	if err != nil {
		log.Errorf("[Mail] SMTP send error: %v", err)
	} else {
		log.Infof("[Mail] Email sent to %s via %s", to, addr)
	}
	return err
}
