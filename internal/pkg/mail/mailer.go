package mail

import (
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/formgate/formgate/internal/pkg/env"
)

// Sender delivers one email. Implementations are selected once at process
// startup via MAIL_DRIVER; business logic only ever sees this interface.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

var (
	sender     Sender
	senderOnce sync.Once
)

// GetSender returns the process-wide email sender, initializing it from the
// environment on first use. Unknown drivers fall back to console so a
// misconfigured mailer never breaks submission side effects.
func GetSender() Sender {
	senderOnce.Do(func() {
		driver := env.GetEnv("MAIL_DRIVER", "console")
		switch driver {
		case "smtp":
			sender = NewSMTPSender()
		case "console":
			sender = NewConsoleSender()
		default:
			log.Warnf("[Mail] unknown MAIL_DRIVER %q, using console", driver)
			sender = NewConsoleSender()
		}
	})
	return sender
}

// SetSender overrides the process-wide sender (tests).
func SetSender(s Sender) {
	senderOnce.Do(func() {})
	sender = s
}
