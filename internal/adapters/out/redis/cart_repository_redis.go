// internal/adapters/out/redis/cart_repository_redis.go
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	cartdom "storefront/internal/domain/cart"
)

const cartKeyPrefix = "herz-cart:"

// CartRepositoryRedis implements cart.Repository.
//
// key:   herz-cart:{cartId}
// value: JSON cartDoc
// TTL:   refreshed on every Save (sliding expiry)
type CartRepositoryRedis struct {
	Client *redis.Client
	TTL    time.Duration

	now func() time.Time
}

func NewCartRepositoryRedis(client *redis.Client, ttl time.Duration) *CartRepositoryRedis {
	if ttl <= 0 {
		ttl = cartdom.DefaultCartTTL
	}
	return &CartRepositoryRedis{Client: client, TTL: ttl, now: time.Now}
}

// NewClient parses REDIS_URL and pings the server.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func cartKey(id string) string { return cartKeyPrefix + id }

// GetByID returns (nil, nil) when the cart is missing or expired.
func (r *CartRepositoryRedis) GetByID(ctx context.Context, id string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_redis: client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, cartdom.ErrInvalidCart
	}

	raw, err := r.Client.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cart_repository_redis: get: %w", err)
	}

	var doc cartDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cart_repository_redis: decode %s: %w", id, err)
	}
	c := doc.toDomain()
	c.ID = id
	return c, nil
}

func (r *CartRepositoryRedis) Save(ctx context.Context, c *cartdom.Cart) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_redis: client is nil")
	}
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return cartdom.ErrInvalidCart
	}

	c.Touch(r.now().UTC(), r.TTL)

	b, err := json.Marshal(cartDocFromDomain(c))
	if err != nil {
		return fmt.Errorf("cart_repository_redis: encode: %w", err)
	}
	if err := r.Client.Set(ctx, cartKey(c.ID), b, r.TTL).Err(); err != nil {
		return fmt.Errorf("cart_repository_redis: set: %w", err)
	}
	return nil
}

func (r *CartRepositoryRedis) Delete(ctx context.Context, id string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_redis: client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return cartdom.ErrInvalidCart
	}
	return r.Client.Del(ctx, cartKey(id)).Err()
}

// -----------------------------------------
// DTO
// -----------------------------------------

type cartDoc struct {
	Items     []cartItemDoc `json:"items"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type cartItemDoc struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Stock     *int64  `json:"stock,omitempty"`
}

func cartDocFromDomain(c *cartdom.Cart) cartDoc {
	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemDoc(it))
	}
	return cartDoc{
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

func (d cartDoc) toDomain() *cartdom.Cart {
	items := make([]cartdom.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, cartdom.CartItem(it))
	}
	return &cartdom.Cart{
		Items:     items,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
