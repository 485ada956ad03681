// internal/domain/cart/repository_port.go
package cart

import "context"

// Repository is the persistence port for session carts.
//
// Implementations refresh the expiry window on every Save.
type Repository interface {
	// GetByID returns (nil, nil) when the session has no cart yet.
	GetByID(ctx context.Context, id string) (*Cart, error)

	// Save creates or overwrites the cart.
	Save(ctx context.Context, c *Cart) error

	// Delete removes the cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, id string) error
}
