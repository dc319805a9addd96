package mail

import (
	"github.com/gofiber/fiber/v2/log"
)

// ConsoleSender logs emails instead of delivering them. Default driver for
// development and tests.
type ConsoleSender struct{}

// NewConsoleSender creates a console sender.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

func (s *ConsoleSender) Send(to string, subject string, htmlBody string, textBody string) error {
	log.Infof("[Mail] (console) to=%s subject=%q\n%s", to, subject, textBody)
	return nil
}
