// internal/adapters/out/db/product_listener_pg.go
package db

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lib/pq"

	"storefront/internal/adapters/out/record"
	productdom "storefront/internal/domain/product"
)

// ChannelProductsChanged is NOTIFYed by the products trigger (see migrations).
const ChannelProductsChanged = "products_changed"

const listenerPingInterval = 90 * time.Second

// Subscribe LISTENs on products_changed and re-reads the catalog on every notification
// (and after a reconnect, which pq.Listener signals with a nil notification).
func (s *Store) Subscribe(ctx context.Context) (<-chan []productdom.Product, error) {
	if err := s.ok(); err != nil {
		return nil, err
	}
	if s.DSN == "" {
		return nil, errors.New("db: Subscribe requires a DSN")
	}

	listener := pq.NewListener(s.DSN, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[db.listener] WARN: event=%d err=%v", ev, err)
		}
	})
	if err := listener.Listen(ChannelProductsChanged); err != nil {
		_ = listener.Close()
		return nil, err
	}

	first, err := s.List(ctx)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	ch := make(chan []productdom.Product, 1)
	ch <- first

	go func() {
		defer close(ch)
		defer listener.Close()

		ping := time.NewTicker(listenerPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := listener.Ping(); err != nil {
					log.Printf("[db.listener] WARN: ping failed: %v", err)
				}
				continue
			case <-listener.Notify:
			}

			ps, err := s.List(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[db.listener] WARN: reload catalog failed: %v", err)
				continue
			}
			record.OfferLatest(ch, ps)
		}
	}()
	return ch, nil
}

