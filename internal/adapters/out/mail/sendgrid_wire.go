// internal/adapters/out/mail/sendgrid_wire.go
package mail

import (
	"log"
	"strings"
)

// Settings are the mail-related config values (see config.Config).
type Settings struct {
	APIKey      string
	FromAddress string
	FromName    string
	ShopBaseURL string
	Currency    string
}

// NewOrderMailerWithSendGrid returns nil when SendGrid is not configured;
// checkout then skips the confirmation mail.
func NewOrderMailerWithSendGrid(s Settings) *OrderMailer {
	if strings.TrimSpace(s.APIKey) == "" {
		log.Printf("[mail] WARN: SENDGRID_API_KEY is empty. order confirmation mail disabled")
		return nil
	}
	if strings.TrimSpace(s.FromAddress) == "" {
		log.Printf("[mail] WARN: SENDGRID_FROM is empty. order confirmation mail disabled")
		return nil
	}

	mailer := NewOrderMailer(NewSendGridClient(s.APIKey, s.FromName), s.FromAddress, s.ShopBaseURL, s.Currency)

	log.Printf("[mail] OrderMailerWithSendGrid initialized. from=%s currency=%s", s.FromAddress, mailer.unit)
	return mailer
}
