// internal/application/usecase/order_usecase.go
package usecase

import (
	"context"
	"sort"
	"strings"

	orderdom "storefront/internal/domain/order"
)

// OrderUsecase is the signed-in user's order history.
type OrderUsecase struct {
	repo orderdom.Repository
}

func NewOrderUsecase(repo orderdom.Repository) *OrderUsecase {
	return &OrderUsecase{repo: repo}
}

// ListMine returns the caller's orders, newest first.
func (u *OrderUsecase) ListMine(ctx context.Context) ([]orderdom.Order, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	orders, err := u.repo.ListByUser(ctx, sess.UID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

// GetMine returns one of the caller's orders. Other users' orders read as not found.
func (u *OrderUsecase) GetMine(ctx context.Context, id string) (orderdom.Order, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return orderdom.Order{}, ErrUnauthenticated
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.Order{}, orderdom.ErrInvalidOrderID
	}
	return u.repo.GetByID(ctx, sess.UID, id)
}
