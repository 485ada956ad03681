// internal/adapters/out/memory/store.go
package memory

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/adapters/out/record"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// MaxStockRetries bounds the optimistic retry loop of UpdateStock.
const MaxStockRetries = 25

var ErrTooManyRetries = errors.New("memory: stock update retried too many times")

type productRec struct {
	p       productdom.Product
	version uint64
}

// Store is an in-process realtime store: products, orders, purchases and roles.
//
// UpdateStock follows the realtime-db transaction model: read a versioned value, run the
// update function outside the lock, then compare-and-swap; a concurrent write makes it
// re-run the function against the newer value.
type Store struct {
	mu sync.Mutex

	products  map[string]*productRec
	orders    map[string]map[string]orderdom.Order
	purchases map[string]map[string]bool
	roles     map[string]bool

	subs   map[uint64]chan []productdom.Product
	nextID uint64

	// BeforeCommit, when set, runs between the read and the compare-and-swap of
	// UpdateStock. Tests use it to interleave concurrent writers.
	BeforeCommit func(productID string, attempt int)

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		products:  map[string]*productRec{},
		orders:    map[string]map[string]orderdom.Order{},
		purchases: map[string]map[string]bool{},
		roles:     map[string]bool{},
		subs:      map[uint64]chan []productdom.Product{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ============================================================
// product.Repository
// ============================================================

func (s *Store) GetByID(_ context.Context, id string) (productdom.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.products[strings.TrimSpace(id)]
	if !ok {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return cloneProduct(rec.p), nil
}

func (s *Store) List(_ context.Context) ([]productdom.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *Store) Create(_ context.Context, p productdom.Product) (productdom.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.newID()
	s.products[p.ID] = &productRec{p: cloneProduct(p), version: 1}
	s.publishLocked()
	return cloneProduct(p), nil
}

func (s *Store) Save(_ context.Context, p productdom.Product) (productdom.Product, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	p.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	var version uint64 = 1
	if rec, ok := s.products[id]; ok {
		version = rec.version + 1
	}
	s.products[id] = &productRec{p: cloneProduct(p), version: version}
	s.publishLocked()
	return cloneProduct(p), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	if _, ok := s.products[id]; !ok {
		return nil
	}
	delete(s.products, id)
	s.publishLocked()
	return nil
}

// Subscribe delivers the current catalog immediately and the latest catalog after every write.
// A slow reader only ever sees the newest snapshot.
func (s *Store) Subscribe(ctx context.Context) (<-chan []productdom.Product, error) {
	ch := make(chan []productdom.Product, 1)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// ============================================================
// product.StockUpdater
// ============================================================

func (s *Store) UpdateStock(ctx context.Context, productID string, fn productdom.StockUpdateFunc) (bool, error) {
	id := strings.TrimSpace(productID)
	for attempt := 0; attempt < MaxStockRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		s.mu.Lock()
		rec, ok := s.products[id]
		var (
			current any
			version uint64
		)
		if ok {
			version = rec.version
			if rec.p.Stock != nil {
				current = *rec.p.Stock
			}
		}
		s.mu.Unlock()

		if !ok {
			return false, nil
		}

		next, commit := fn(current)
		if !commit {
			return false, nil
		}

		if s.BeforeCommit != nil {
			s.BeforeCommit(id, attempt)
		}

		s.mu.Lock()
		rec, ok = s.products[id]
		if !ok {
			s.mu.Unlock()
			return false, nil
		}
		if rec.version != version {
			s.mu.Unlock()
			continue
		}
		rec.p.Stock = productdom.Int64Ptr(next)
		rec.version++
		s.publishLocked()
		s.mu.Unlock()
		return true, nil
	}
	return false, ErrTooManyRetries
}

// SetStock overwrites a product's stock (nil = untracked). Used for seeding and tests.
func (s *Store) SetStock(productID string, stock *int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.products[productID]
	if !ok {
		return false
	}
	if stock == nil {
		rec.p.Stock = nil
	} else {
		rec.p.Stock = productdom.Int64Ptr(*stock)
	}
	rec.version++
	s.publishLocked()
	return true
}

// ============================================================
// order.Repository / order.PurchaseRepository
// ============================================================

// Orders is the order.Repository view of the store.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// OrderRepository adapts Store to order.Repository (method names overlap with products).
type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, o orderdom.Order) (string, error) {
	s := r.s
	uid := strings.TrimSpace(o.UserID)
	if uid == "" {
		return "", orderdom.ErrInvalidUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.newID()
	o.UserID = uid
	o.CreatedAt = s.now().UTC()
	if s.orders[uid] == nil {
		s.orders[uid] = map[string]orderdom.Order{}
	}
	s.orders[uid][o.ID] = cloneOrder(o)
	return o.ID, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]orderdom.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.orders[strings.TrimSpace(userID)]
	out := make([]orderdom.Order, 0, len(byID))
	for _, o := range byID {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (r *OrderRepository) GetByID(_ context.Context, userID, id string) (orderdom.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[strings.TrimSpace(userID)][strings.TrimSpace(id)]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) MarkPurchased(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := strings.TrimSpace(userID)
	if s.purchases[uid] == nil {
		s.purchases[uid] = map[string]bool{}
	}
	s.purchases[uid][strings.TrimSpace(productID)] = true
	return nil
}

func (s *Store) HasPurchased(_ context.Context, userID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchases[strings.TrimSpace(userID)][strings.TrimSpace(productID)], nil
}

// ============================================================
// role.Repository
// ============================================================

func (s *Store) IsAdmin(_ context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[strings.TrimSpace(uid)], nil
}

func (s *Store) SetAdmin(_ context.Context, uid string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid = strings.TrimSpace(uid)
	if isAdmin {
		s.roles[uid] = true
	} else {
		delete(s.roles, uid)
	}
	return nil
}

// ============================================================
// helpers
// ============================================================

func (s *Store) snapshotLocked() []productdom.Product {
	out := make([]productdom.Product, 0, len(s.products))
	for _, rec := range s.products {
		out = append(out, cloneProduct(rec.p))
	}
	productdom.SortCatalog(out)
	return out
}

// publishLocked pushes the latest catalog to every subscriber, replacing any unread snapshot.
func (s *Store) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		record.OfferLatest(ch, snap)
	}
}

func cloneProduct(p productdom.Product) productdom.Product {
	if p.Stock != nil {
		p.Stock = productdom.Int64Ptr(*p.Stock)
	}
	if p.Gallery != nil {
		p.Gallery = append([]string(nil), p.Gallery...)
	}
	if p.BeforeAfter != nil {
		ba := *p.BeforeAfter
		p.BeforeAfter = &ba
	}
	return p
}

// cloneOrder detaches the stored order from caller-owned slices and maps.
func cloneOrder(o orderdom.Order) orderdom.Order {
	o.Items = append([]orderdom.OrderItem(nil), o.Items...)
	o.DeliveryAddress = maps.Clone(o.DeliveryAddress)
	return o
}
