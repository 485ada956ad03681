// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	cartdom "storefront/internal/domain/cart"
	productdom "storefront/internal/domain/product"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
	ErrOutOfStock          = errors.New("cart_usecase: product is out of stock")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CartUsecase coordinates session cart operations.
type CartUsecase struct {
	repo     cartdom.Repository
	products productdom.Repository
	clock    Clock
}

func NewCartUsecase(repo cartdom.Repository, products productdom.Repository) *CartUsecase {
	return &CartUsecase{
		repo:     repo,
		products: products,
		clock:    systemClock{},
	}
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(repo cartdom.Repository, products productdom.Repository, clock Clock) *CartUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &CartUsecase{repo: repo, products: products, clock: clock}
}

// Get returns the session cart. A session without a cart gets an empty, unsaved one.
func (uc *CartUsecase) Get(ctx context.Context, cartID string) (*cartdom.Cart, error) {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return nil, ErrCartInvalidArgument
	}

	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	return cartdom.NewCart(id, nil, uc.clock.Now().UTC())
}

// AddItem adds qty (default 1) of productID, refreshing the line's name/price/stock snapshot.
// The product must exist and be buyable.
func (uc *CartUsecase) AddItem(ctx context.Context, cartID, productID string, qty int64) (*cartdom.Cart, error) {
	pid := strings.TrimSpace(productID)
	if pid == "" || qty < 0 {
		return nil, ErrCartInvalidArgument
	}
	if qty == 0 {
		qty = 1
	}

	p, err := uc.products.GetByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if !p.CanBuy() {
		return nil, ErrOutOfStock
	}

	c, err := uc.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	snap := cartdom.CartItem{
		ProductID: p.ID,
		Name:      p.Name.Primary,
		Price:     p.Price,
		Stock:     p.Stock,
	}
	if err := c.Add(snap, qty, uc.clock.Now().UTC()); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetQty sets the quantity of a line; qty <= 0 removes it.
func (uc *CartUsecase) SetQty(ctx context.Context, cartID, productID string, qty int64) (*cartdom.Cart, error) {
	c, err := uc.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQty(productID, qty, uc.clock.Now().UTC()); err != nil {
		if errors.Is(err, cartdom.ErrInvalidItem) {
			return nil, ErrCartInvalidArgument
		}
		return nil, err
	}
	if err := uc.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CartUsecase) RemoveItem(ctx context.Context, cartID, productID string) (*cartdom.Cart, error) {
	return uc.SetQty(ctx, cartID, productID, 0)
}

// Clear drops the whole session cart.
func (uc *CartUsecase) Clear(ctx context.Context, cartID string) error {
	id := strings.TrimSpace(cartID)
	if id == "" {
		return ErrCartInvalidArgument
	}
	return uc.repo.Delete(ctx, id)
}
