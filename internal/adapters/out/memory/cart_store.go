// internal/adapters/out/memory/cart_store.go
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	cartdom "storefront/internal/domain/cart"
)

// CartStore implements cart.Repository in process memory. Expired carts read as missing.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cartdom.Cart
	ttl   time.Duration
	now   func() time.Time
}

func NewCartStore(ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = cartdom.DefaultCartTTL
	}
	return &CartStore{
		carts: map[string]cartdom.Cart{},
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetByID returns (nil, nil) if not found (nil policy).
func (s *CartStore) GetByID(_ context.Context, id string) (*cartdom.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	c, ok := s.carts[id]
	if !ok {
		return nil, nil
	}
	if !c.ExpiresAt.IsZero() && s.now().After(c.ExpiresAt) {
		delete(s.carts, id)
		return nil, nil
	}
	c.Items = append([]cartdom.CartItem(nil), c.Items...)
	return &c, nil
}

func (s *CartStore) Save(_ context.Context, c *cartdom.Cart) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("memory.cart_store: cart id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.Touch(s.now().UTC(), s.ttl)
	cp := *c
	cp.Items = append([]cartdom.CartItem(nil), c.Items...)
	s.carts[cp.ID] = cp
	return nil
}

func (s *CartStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, strings.TrimSpace(id))
	return nil
}
