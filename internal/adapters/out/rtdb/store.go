// internal/adapters/out/rtdb/store.go
package rtdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/db"

	"storefront/internal/adapters/out/record"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// Realtime Database layout
//
//	products/{productId}            {name, name_en, ..., price, stock, gallery, beforeAfter, createdAt, updatedAt}
//	orders/{uid}/{orderId}          {status, total, items[], deliveryAddress, createdAt}
//	purchases/{uid}/{productId}     true
//	roles/{uid}/isAdmin             true
const (
	pathProducts  = "products"
	pathOrders    = "orders"
	pathPurchases = "purchases"
	pathRoles     = "roles"

	DefaultPollInterval = 2 * time.Second
)

var (
	ErrClientNil = errors.New("rtdb: database client is nil")

	// errAbort makes Ref.Transaction give up without writing.
	errAbort = errors.New("rtdb: transaction aborted")
)

// serverTimestamp is resolved by the database on write.
var serverTimestamp = map[string]any{".sv": "timestamp"}

// Store implements the product, order, purchase and role ports over the Firebase Realtime Database.
type Store struct {
	Client *db.Client

	// PollInterval is the ETag polling period of Subscribe (the Admin SDK has no listeners).
	PollInterval time.Duration
}

func NewStore(client *db.Client, pollInterval time.Duration) *Store {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Store{Client: client, PollInterval: pollInterval}
}

func (s *Store) ref(parts ...string) (*db.Ref, error) {
	if s == nil || s.Client == nil {
		return nil, ErrClientNil
	}
	return s.Client.NewRef(strings.Join(parts, "/")), nil
}

// ============================================================
// product.Repository
// ============================================================

func (s *Store) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}
	ref, err := s.ref(pathProducts, id)
	if err != nil {
		return productdom.Product{}, err
	}

	var data map[string]any
	if err := ref.Get(ctx, &data); err != nil {
		return productdom.Product{}, fmt.Errorf("rtdb: get product %s: %w", id, err)
	}
	if data == nil {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return record.ProductFromFields(id, data), nil
}

func (s *Store) List(ctx context.Context) ([]productdom.Product, error) {
	ref, err := s.ref(pathProducts)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := ref.Get(ctx, &tree); err != nil {
		return nil, fmt.Errorf("rtdb: list products: %w", err)
	}
	return record.ProductsFromTree(tree), nil
}

// Create pushes a new product node; the push key becomes the id.
func (s *Store) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	ref, err := s.ref(pathProducts)
	if err != nil {
		return productdom.Product{}, err
	}
	child, err := ref.Push(ctx, record.ProductFields(p, record.Millis))
	if err != nil {
		return productdom.Product{}, fmt.Errorf("rtdb: create product: %w", err)
	}
	p.ID = child.Key
	return p, nil
}

// Save overwrites products/{id} as a whole.
func (s *Store) Save(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	ref, err := s.ref(pathProducts, p.ID)
	if err != nil {
		return productdom.Product{}, err
	}
	if err := ref.Set(ctx, record.ProductFields(p, record.Millis)); err != nil {
		return productdom.Product{}, fmt.Errorf("rtdb: save product %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrInvalidID
	}
	ref, err := s.ref(pathProducts, id)
	if err != nil {
		return err
	}
	return ref.Delete(ctx)
}

// Subscribe polls products with GetIfChanged and delivers a catalog whenever the ETag moves.
// The first catalog is fetched before returning so that access errors surface immediately.
func (s *Store) Subscribe(ctx context.Context) (<-chan []productdom.Product, error) {
	ref, err := s.ref(pathProducts)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, etag string) (bool, string, map[string]any, error) {
		var tree map[string]any
		changed, next, err := ref.GetIfChanged(ctx, etag, &tree)
		return changed, next, tree, err
	}
	return pollCatalog(ctx, s.PollInterval, fetch)
}

// ============================================================
// product.StockUpdater
// ============================================================

// UpdateStock runs fn inside a Ref.Transaction on products/{id}. The SDK re-runs the
// function when another client wrote first. A missing product or a declined update
// aborts without writing.
func (s *Store) UpdateStock(ctx context.Context, productID string, fn productdom.StockUpdateFunc) (bool, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return false, productdom.ErrInvalidID
	}
	ref, err := s.ref(pathProducts, id)
	if err != nil {
		return false, err
	}

	err = ref.Transaction(ctx, stockTransaction(fn))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errAbort):
		return false, nil
	default:
		return false, fmt.Errorf("rtdb: stock transaction %s: %w", id, err)
	}
}

func stockTransaction(fn productdom.StockUpdateFunc) db.UpdateFn {
	return func(node db.TransactionNode) (any, error) {
		var data map[string]any
		if err := node.Unmarshal(&data); err != nil {
			return nil, err
		}
		if data == nil {
			return nil, errAbort
		}
		next, ok := fn(data["stock"])
		if !ok {
			return nil, errAbort
		}
		data["stock"] = next
		return data, nil
	}
}

// ============================================================
// order.Repository / order.PurchaseRepository
// ============================================================

// Orders is the order.Repository view of the store.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

type OrderRepository struct{ s *Store }

// Create pushes under orders/{uid}; createdAt is the server timestamp.
func (r *OrderRepository) Create(ctx context.Context, o orderdom.Order) (string, error) {
	uid := strings.TrimSpace(o.UserID)
	if uid == "" {
		return "", orderdom.ErrInvalidUserID
	}
	ref, err := r.s.ref(pathOrders, uid)
	if err != nil {
		return "", err
	}
	child, err := ref.Push(ctx, record.OrderFields(o, serverTimestamp))
	if err != nil {
		return "", fmt.Errorf("rtdb: create order: %w", err)
	}
	return child.Key, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]orderdom.Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, orderdom.ErrInvalidUserID
	}
	ref, err := r.s.ref(pathOrders, uid)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := ref.Get(ctx, &tree); err != nil {
		return nil, fmt.Errorf("rtdb: list orders: %w", err)
	}

	out := make([]orderdom.Order, 0, len(tree))
	for id, v := range tree {
		if m, ok := v.(map[string]any); ok {
			out = append(out, record.OrderFromFields(uid, id, m))
		}
	}
	return out, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, userID, id string) (orderdom.Order, error) {
	uid, oid := strings.TrimSpace(userID), strings.TrimSpace(id)
	if uid == "" || oid == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	ref, err := r.s.ref(pathOrders, uid, oid)
	if err != nil {
		return orderdom.Order{}, err
	}
	var data map[string]any
	if err := ref.Get(ctx, &data); err != nil {
		return orderdom.Order{}, fmt.Errorf("rtdb: get order: %w", err)
	}
	if data == nil {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return record.OrderFromFields(uid, oid, data), nil
}

func (s *Store) MarkPurchased(ctx context.Context, userID, productID string) error {
	ref, err := s.ref(pathPurchases, strings.TrimSpace(userID), strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	return ref.Set(ctx, true)
}

func (s *Store) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	ref, err := s.ref(pathPurchases, strings.TrimSpace(userID), strings.TrimSpace(productID))
	if err != nil {
		return false, err
	}
	var v any
	if err := ref.Get(ctx, &v); err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// ============================================================
// role.Repository
// ============================================================

func (s *Store) IsAdmin(ctx context.Context, uid string) (bool, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return false, nil
	}
	ref, err := s.ref(pathRoles, uid, "isAdmin")
	if err != nil {
		return false, err
	}
	var v any
	if err := ref.Get(ctx, &v); err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (s *Store) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	ref, err := s.ref(pathRoles, strings.TrimSpace(uid), "isAdmin")
	if err != nil {
		return err
	}
	if !isAdmin {
		return ref.Delete(ctx)
	}
	return ref.Set(ctx, true)
}
