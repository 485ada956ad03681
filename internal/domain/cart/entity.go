// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCart = errors.New("cart: invalid")
	ErrInvalidItem = errors.New("cart: invalid item")
)

// DefaultCartTTL is the inactivity window after which a session cart expires.
const DefaultCartTTL = 7 * 24 * time.Hour

// CartItem is one line of the cart: a product id plus a denormalized snapshot of
// name/price/stock taken when the line was last added.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Stock     *int64  `json:"stock"`
}

// Line is the (productId, qty) pair fed to the reservation loop.
type Line struct {
	ProductID string
	Name      string
	Qty       int64
}

// Cart is owned by one client session (ID = session id).
//
// Items keep insertion order: the checkout reserves stock in this order.
type Cart struct {
	ID    string     `json:"id"`
	Items []CartItem `json:"items"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewCart creates an empty (or pre-filled) cart for a session id.
func NewCart(id string, items []CartItem, now time.Time) (*Cart, error) {
	c := &Cart{
		ID:        strings.TrimSpace(id),
		Items:     mergeItems(items),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultCartTTL),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Add merges qty into the line for snapshot.ProductID (appending a new line when absent)
// and refreshes the name/price/stock snapshot. qty must be >= 1.
func (c *Cart) Add(snapshot CartItem, qty int64, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	pid := strings.TrimSpace(snapshot.ProductID)
	if pid == "" || qty <= 0 {
		return ErrInvalidItem
	}

	idx := c.indexOf(pid)
	if idx >= 0 {
		it := c.Items[idx]
		it.Name = snapshot.Name
		it.Price = snapshot.Price
		it.Stock = cloneStock(snapshot.Stock)
		it.Qty += qty
		c.Items[idx] = it
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID: pid,
			Name:      snapshot.Name,
			Price:     snapshot.Price,
			Qty:       qty,
			Stock:     cloneStock(snapshot.Stock),
		})
	}

	c.touch(now)
	return c.validate()
}

// SetQty replaces the quantity of a line. qty <= 0 removes it.
// Setting a quantity for a product that is not in the cart is a no-op.
func (c *Cart) SetQty(productID string, qty int64, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidItem
	}

	idx := c.indexOf(pid)
	switch {
	case idx < 0:
	case qty <= 0:
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	default:
		c.Items[idx].Qty = qty
	}

	c.touch(now)
	return c.validate()
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID string, now time.Time) error {
	return c.SetQty(productID, 0, now)
}

// Clear empties the cart.
func (c *Cart) Clear(now time.Time) {
	if c == nil {
		return
	}
	c.Items = []CartItem{}
	c.touch(now)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Total is Σ qty×price over the snapshot prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, it := range c.Items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(it.Qty)))
	}
	return total
}

// TotalQty is Σ qty.
func (c *Cart) TotalQty() int64 {
	if c == nil {
		return 0
	}
	var n int64
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

// Lines returns the (productId, qty) pairs in cart order.
func (c *Cart) Lines() []Line {
	if c == nil {
		return nil
	}
	out := make([]Line, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, Line{ProductID: it.ProductID, Name: it.Name, Qty: it.Qty})
	}
	return out
}

// Touch refreshes UpdatedAt/ExpiresAt using ttl (DefaultCartTTL when ttl <= 0).
func (c *Cart) Touch(now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(ttl)
}

func (c *Cart) touch(now time.Time) {
	c.Touch(now, DefaultCartTTL)
}

func (c *Cart) validate() error {
	if c == nil || c.ID == "" {
		return ErrInvalidCart
	}
	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() || c.UpdatedAt.Before(c.CreatedAt) {
		return ErrInvalidCart
	}
	for _, it := range c.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Qty <= 0 || it.Price < 0 {
			return ErrInvalidItem
		}
	}
	return nil
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// ----------------------------
// Helpers
// ----------------------------

// mergeItems drops invalid lines and folds duplicates into the first occurrence,
// keeping insertion order.
func mergeItems(src []CartItem) []CartItem {
	out := make([]CartItem, 0, len(src))
	pos := map[string]int{}
	for _, it := range src {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Qty <= 0 {
			continue
		}
		it.ProductID = pid
		it.Stock = cloneStock(it.Stock)
		if i, ok := pos[pid]; ok {
			out[i].Qty += it.Qty
			continue
		}
		pos[pid] = len(out)
		out = append(out, it)
	}
	return out
}

func cloneStock(s *int64) *int64 {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
