package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "storefront/internal/domain/order"
)

type sentMail struct {
	from, to, subject, body string
}

type fakeClient struct {
	sent []sentMail
	err  error
}

func (f *fakeClient) Send(_ context.Context, from, to, subject, body string) error {
	f.sent = append(f.sent, sentMail{from, to, subject, body})
	return f.err
}

func TestOrderMailer_NotifyOrderPlaced(t *testing.T) {
	client := &fakeClient{}
	m := NewOrderMailer(client, "shop@example.com", "https://herz.example/", "QAR")

	o := orderdom.Order{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		UserID:    "u1",
		Status:    orderdom.StatusPending,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []orderdom.OrderItem{
			{ProductID: "p1", Name: "Rose Oil", Qty: 2, Price: 10},
			{ProductID: "p2", Name: "Oud Soap", Qty: 1, Price: 5.5},
		},
		Total: 25.5,
	}

	require.NoError(t, m.NotifyOrderPlaced(context.Background(), " buyer@example.com ", o))
	require.Len(t, client.sent, 1)

	got := client.sent[0]
	assert.Equal(t, "shop@example.com", got.from)
	assert.Equal(t, "buyer@example.com", got.to)
	assert.Equal(t, "Your Herz order 0f8fad5b", got.subject)
	assert.Contains(t, got.body, "- Rose Oil x2  QAR 20.00")
	assert.Contains(t, got.body, "- Oud Soap x1  QAR 5.50")
	assert.Contains(t, got.body, "Total: QAR 25.50")
	assert.Contains(t, got.body, "https://herz.example/account")
}

func TestOrderMailer_Errors(t *testing.T) {
	m := NewOrderMailer(&fakeClient{}, "shop@example.com", "", "QAR")
	assert.Error(t, m.NotifyOrderPlaced(context.Background(), "  ", orderdom.Order{ID: "o1"}))

	boom := errors.New("boom")
	m = NewOrderMailer(&fakeClient{err: boom}, "shop@example.com", "", "QAR")
	assert.ErrorIs(t, m.NotifyOrderPlaced(context.Background(), "a@b.c", orderdom.Order{ID: "o1"}), boom)
}

func TestOrderMailer_FormatUsesCurrencyScale(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"QAR", "QAR 12.50"},
		{"JPY", "JPY 13"},
		{"KWD", "KWD 12.500"},
		{"nope", "QAR 12.50"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m := NewOrderMailer(&fakeClient{}, "", "", tt.code)
			assert.Equal(t, tt.want, m.Format(decimal.RequireFromString("12.5")))
		})
	}
}

func TestNewOrderMailerWithSendGrid_DisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewOrderMailerWithSendGrid(Settings{FromAddress: "shop@example.com"}))
	assert.Nil(t, NewOrderMailerWithSendGrid(Settings{APIKey: "k"}))
	assert.NotNil(t, NewOrderMailerWithSendGrid(Settings{APIKey: "k", FromAddress: "shop@example.com"}))
}
