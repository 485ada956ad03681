// internal/adapters/out/record/feed.go
package record

import productdom "storefront/internal/domain/product"

// OfferLatest puts snap on a 1-buffered catalog feed, replacing an unread catalog.
// Only the feed's single writer may call it.
func OfferLatest(ch chan []productdom.Product, snap []productdom.Product) {
	select {
	case ch <- snap:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
