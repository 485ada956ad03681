// internal/domain/order/entity.go
package order

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatusPending is the only status written by checkout. Later transitions happen elsewhere.
const StatusPending = "pending"

// OrderItem is the immutable snapshot of a cart line at commit time.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Qty       int64   `json:"qty"`
	Price     float64 `json:"price"`
}

// Order is stored under orders/{userId}/{orderId}.
type Order struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Status          string         `json:"status"`
	Items           []OrderItem    `json:"items"`
	Total           float64        `json:"total"`
	CreatedAt       time.Time      `json:"createdAt"`
	DeliveryAddress map[string]any `json:"deliveryAddress"`
}

var (
	ErrNotFound       = errors.New("order: not found")
	ErrInvalidUserID  = errors.New("order: invalid userId")
	ErrEmptyItems     = errors.New("order: items must not be empty")
	ErrInvalidItem    = errors.New("order: invalid item")
	ErrInvalidOrderID = errors.New("order: invalid id")
)

// New builds a pending order from item snapshots. Total is Σ qty×price.
// A nil address is stored as an empty map.
func New(userID string, items []OrderItem, address map[string]any) (Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return Order{}, ErrInvalidUserID
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyItems
	}

	cp := make([]OrderItem, 0, len(items))
	for _, it := range items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" || it.Qty <= 0 || it.Price < 0 || math.IsNaN(it.Price) {
			return Order{}, ErrInvalidItem
		}
		cp = append(cp, it)
	}

	if address == nil {
		address = map[string]any{}
	}

	return Order{
		UserID:          uid,
		Status:          StatusPending,
		Items:           cp,
		Total:           ComputeTotal(cp).InexactFloat64(),
		DeliveryAddress: address,
	}, nil
}

// ComputeTotal sums qty×price in decimal arithmetic.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Qty)))
	}
	return total
}

// TotalMatches reports whether Total equals the recomputed item sum (to the cent).
func (o Order) TotalMatches() bool {
	return decimal.NewFromFloat(o.Total).Round(2).Equal(ComputeTotal(o.Items).Round(2))
}
