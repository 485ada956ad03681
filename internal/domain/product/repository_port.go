// internal/domain/product/repository_port.go
package product

import "context"

// Repository is the persistence port for products (products/{id}).
type Repository interface {
	// GetByID returns ErrNotFound when the product does not exist.
	GetByID(ctx context.Context, id string) (Product, error)

	// List returns every product. Order is store-defined; callers sort when needed.
	List(ctx context.Context) ([]Product, error)

	// Create stores p under a store-assigned id and returns the saved product.
	Create(ctx context.Context, p Product) (Product, error)

	// Save overwrites products/{p.ID}.
	Save(ctx context.Context, p Product) (Product, error)

	// Delete removes products/{id}. Deleting a missing product is not an error.
	Delete(ctx context.Context, id string) error

	// Subscribe delivers the current catalog and every later change until ctx ends.
	// The returned channel is closed when the subscription stops.
	Subscribe(ctx context.Context) (<-chan []Product, error)
}

// StockUpdater is the store's conditional update primitive over products/{id}/stock.
//
// The store evaluates fn against the latest committed value and retries it on conflicting
// writes. committed=false means fn declined (or the product is missing), err is reserved
// for transport / policy failures.
type StockUpdater interface {
	UpdateStock(ctx context.Context, productID string, fn StockUpdateFunc) (committed bool, err error)
}
