// internal/platform/di/storefront/stores.go
package storefront

import (
	"fmt"

	pgstore "storefront/internal/adapters/out/db"
	fsstore "storefront/internal/adapters/out/firestore"
	"storefront/internal/adapters/out/memory"
	redisstore "storefront/internal/adapters/out/redis"
	"storefront/internal/adapters/out/rtdb"
	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
	roledom "storefront/internal/domain/role"
	appcfg "storefront/internal/infra/config"
	shared "storefront/internal/platform/di/shared"
)

// Stores are the outbound ports of the selected STORE_BACKEND plus the cart store.
type Stores struct {
	Backend string

	Products  productdom.Repository
	Stock     productdom.StockUpdater
	Orders    orderdom.Repository
	Purchases orderdom.PurchaseRepository
	Roles     roledom.Repository
	Carts     cartdom.Repository
}

// OpenStores binds the ports to the clients infra opened. It does not dial anything.
func OpenStores(infra *shared.Infra) (Stores, error) {
	if infra == nil || infra.Config == nil {
		return Stores{}, fmt.Errorf("di.storefront: infra is nil")
	}
	cfg := infra.Config
	st := Stores{Backend: cfg.StoreBackend}

	switch cfg.StoreBackend {
	case appcfg.BackendRTDB:
		s := rtdb.NewStore(infra.RTDB, cfg.SubscribePollInterval)
		st.Products, st.Stock, st.Orders, st.Purchases, st.Roles = s, s, s.Orders(), s, s

	case appcfg.BackendFirestore:
		s := fsstore.NewStore(infra.Firestore)
		st.Products, st.Stock, st.Orders, st.Purchases, st.Roles = s, s, s.Orders(), s, s

	case appcfg.BackendPostgres:
		if infra.Postgres == nil {
			return Stores{}, fmt.Errorf("di.storefront: postgres is not connected")
		}
		s := pgstore.NewStore(infra.Postgres.Client, infra.Postgres.DSN)
		st.Products, st.Stock, st.Orders, st.Purchases, st.Roles = s, s, s.Orders(), s, s

	case appcfg.BackendMemory:
		s := memory.NewStore()
		st.Products, st.Stock, st.Orders, st.Purchases, st.Roles = s, s, s.Orders(), s, s

	default:
		return Stores{}, fmt.Errorf("di.storefront: unknown store backend %q", cfg.StoreBackend)
	}

	if infra.Redis != nil {
		st.Carts = redisstore.NewCartRepositoryRedis(infra.Redis, cfg.CartTTL)
	} else {
		st.Carts = memory.NewCartStore(cfg.CartTTL)
	}
	return st, nil
}
