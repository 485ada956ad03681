// internal/domain/order/repository_port.go
package order

import "context"

// Repository persists orders under the owning user's namespace.
type Repository interface {
	// Create writes o with a store-assigned id and a server-observed creation time.
	Create(ctx context.Context, o Order) (string, error)

	// ListByUser returns every order of userID (unsorted).
	ListByUser(ctx context.Context, userID string) ([]Order, error)

	// GetByID returns ErrNotFound when orders/{userID}/{id} does not exist.
	GetByID(ctx context.Context, userID, id string) (Order, error)
}

// PurchaseRepository holds purchases/{userId}/{productId} = true markers.
// Repeated purchases of one product collapse to a single marker.
type PurchaseRepository interface {
	MarkPurchased(ctx context.Context, userID, productID string) error
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}
