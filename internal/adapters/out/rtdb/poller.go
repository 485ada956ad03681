// internal/adapters/out/rtdb/poller.go
package rtdb

import (
	"context"
	"log"
	"time"

	"storefront/internal/adapters/out/record"
	productdom "storefront/internal/domain/product"
)

// fetchFunc is one conditional read of the products node.
type fetchFunc func(ctx context.Context, etag string) (changed bool, nextETag string, tree map[string]any, err error)

// pollCatalog fetches once synchronously, then keeps polling every interval until ctx ends.
// The channel holds at most the newest catalog; it is closed when ctx ends.
func pollCatalog(ctx context.Context, interval time.Duration, fetch fetchFunc) (<-chan []productdom.Product, error) {
	_, etag, tree, err := fetch(ctx, "")
	if err != nil {
		return nil, err
	}

	ch := make(chan []productdom.Product, 1)
	ch <- record.ProductsFromTree(tree)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			changed, next, tree, err := fetch(ctx, etag)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[rtdb] WARN: catalog poll failed: %v", err)
				continue
			}
			if !changed {
				continue
			}
			etag = next
			record.OfferLatest(ch, record.ProductsFromTree(tree))
		}
	}()
	return ch, nil
}

