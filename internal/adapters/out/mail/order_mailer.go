// internal/adapters/out/mail/order_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	orderdom "storefront/internal/domain/order"
)

// EmailClient is the low-level sender (SendGrid, or a fake in tests).
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// OrderMailer sends order confirmations. It satisfies usecase.OrderNotifier.
type OrderMailer struct {
	client      EmailClient
	fromAddress string
	shopBaseURL string
	unit        currency.Unit
}

// NewOrderMailer builds the mailer. An unknown currency code falls back to QAR.
func NewOrderMailer(client EmailClient, fromAddress, shopBaseURL, currencyCode string) *OrderMailer {
	unit, err := currency.ParseISO(strings.TrimSpace(currencyCode))
	if err != nil {
		unit = currency.MustParseISO("QAR")
	}
	return &OrderMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
		shopBaseURL: strings.TrimRight(strings.TrimSpace(shopBaseURL), "/"),
		unit:        unit,
	}
}

func (m *OrderMailer) NotifyOrderPlaced(ctx context.Context, toEmail string, o orderdom.Order) error {
	if m == nil || m.client == nil {
		return errors.New("order_mailer: client is nil")
	}
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return errors.New("order_mailer: recipient is empty")
	}

	subject := fmt.Sprintf("Your Herz order %s", shortID(o.ID))
	return m.client.Send(ctx, m.fromAddress, toEmail, subject, m.buildBody(o))
}

func (m *OrderMailer) buildBody(o orderdom.Order) string {
	var b strings.Builder
	b.WriteString("Thank you for your order.\n\n")
	fmt.Fprintf(&b, "Order: %s\n", o.ID)
	if !o.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", o.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	b.WriteString("\n")

	for _, it := range o.Items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Qty))
		fmt.Fprintf(&b, "- %s x%d  %s\n", it.Name, it.Qty, m.Format(line))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", m.Format(decimal.NewFromFloat(o.Total)))

	if m.shopBaseURL != "" {
		fmt.Fprintf(&b, "\nYour orders: %s/account\n", m.shopBaseURL)
	}
	return b.String()
}

// Format renders amount as "QAR 25.00", using the currency's standard scale.
func (m *OrderMailer) Format(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(m.unit)
	return m.unit.String() + " " + amount.StringFixed(int32(scale))
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
