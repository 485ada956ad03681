// internal/adapters/out/firestore/store.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"storefront/internal/adapters/out/record"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

// Collection design
//
//	products/{productId}
//	orders/{uid}/items/{orderId}
//	purchases/{uid}/products/{productId}   {purchased: true}
//	roles/{uid}                            {isAdmin: bool}
//
// Field names match the realtime-db nodes (see record).
const maxTxAttempts = 25

var (
	ErrClientNil = errors.New("firestore: client is nil")

	errAbort = errors.New("firestore: transaction aborted")
)

// Store implements the product, order, purchase and role ports over Firestore.
type Store struct {
	Client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{Client: client}
}

func (s *Store) ok() error {
	if s == nil || s.Client == nil {
		return ErrClientNil
	}
	return nil
}

func (s *Store) products() *firestore.CollectionRef {
	return s.Client.Collection("products")
}

func (s *Store) orders(uid string) *firestore.CollectionRef {
	return s.Client.Collection("orders").Doc(uid).Collection("items")
}

func (s *Store) purchase(uid, productID string) *firestore.DocumentRef {
	return s.Client.Collection("purchases").Doc(uid).Collection("products").Doc(productID)
}

func (s *Store) role(uid string) *firestore.DocumentRef {
	return s.Client.Collection("roles").Doc(uid)
}

// ============================================================
// product.Repository
// ============================================================

func (s *Store) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if err := s.ok(); err != nil {
		return productdom.Product{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrNotFound
	}

	snap, err := s.products().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return record.ProductFromFields(snap.Ref.ID, snap.Data()), nil
}

func (s *Store) List(ctx context.Context) ([]productdom.Product, error) {
	if err := s.ok(); err != nil {
		return nil, err
	}
	it := s.products().Documents(ctx)
	defer it.Stop()

	out := []productdom.Product{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: list products: %w", err)
		}
		out = append(out, record.ProductFromFields(snap.Ref.ID, snap.Data()))
	}
	productdom.SortCatalog(out)
	return out, nil
}

func (s *Store) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if err := s.ok(); err != nil {
		return productdom.Product{}, err
	}
	ref := s.products().NewDoc()
	if _, err := ref.Create(ctx, record.ProductFields(p, record.Native)); err != nil {
		return productdom.Product{}, fmt.Errorf("firestore: create product: %w", err)
	}
	p.ID = ref.ID
	return p, nil
}

// Save overwrites the whole document.
func (s *Store) Save(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if err := s.ok(); err != nil {
		return productdom.Product{}, err
	}
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	if _, err := s.products().Doc(p.ID).Set(ctx, record.ProductFields(p, record.Native)); err != nil {
		return productdom.Product{}, fmt.Errorf("firestore: save product %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.ok(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrInvalidID
	}
	_, err := s.products().Doc(id).Delete(ctx)
	return err
}

// Subscribe listens to the products collection. The first snapshot is read before returning.
func (s *Store) Subscribe(ctx context.Context) (<-chan []productdom.Product, error) {
	if err := s.ok(); err != nil {
		return nil, err
	}

	it := s.products().Snapshots(ctx)
	first, err := readCatalog(it)
	if err != nil {
		it.Stop()
		return nil, err
	}

	ch := make(chan []productdom.Product, 1)
	ch <- first

	go func() {
		defer close(ch)
		defer it.Stop()

		for {
			ps, err := readCatalog(it)
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					log.Printf("[firestore] WARN: products listener stopped: %v", err)
				}
				return
			}
			record.OfferLatest(ch, ps)
		}
	}()
	return ch, nil
}

func readCatalog(it *firestore.QuerySnapshotIterator) ([]productdom.Product, error) {
	qs, err := it.Next()
	if err != nil {
		return nil, err
	}
	docs, err := qs.Documents.GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]productdom.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, record.ProductFromFields(d.Ref.ID, d.Data()))
	}
	productdom.SortCatalog(out)
	return out, nil
}

// ============================================================
// product.StockUpdater
// ============================================================

// UpdateStock reads and writes the stock field in one transaction; Firestore re-runs the
// function on contention.
func (s *Store) UpdateStock(ctx context.Context, productID string, fn productdom.StockUpdateFunc) (bool, error) {
	if err := s.ok(); err != nil {
		return false, err
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return false, productdom.ErrInvalidID
	}
	ref := s.products().Doc(id)

	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errAbort
			}
			return err
		}
		next, ok := fn(snap.Data()["stock"])
		if !ok {
			return errAbort
		}
		return tx.Update(ref, []firestore.Update{{Path: "stock", Value: next}})
	}, firestore.MaxAttempts(maxTxAttempts))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errAbort):
		return false, nil
	default:
		return false, fmt.Errorf("firestore: stock transaction %s: %w", id, err)
	}
}

// ============================================================
// order.Repository / order.PurchaseRepository
// ============================================================

func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(ctx context.Context, o orderdom.Order) (string, error) {
	if err := r.s.ok(); err != nil {
		return "", err
	}
	uid := strings.TrimSpace(o.UserID)
	if uid == "" {
		return "", orderdom.ErrInvalidUserID
	}
	ref := r.s.orders(uid).NewDoc()
	if _, err := ref.Create(ctx, record.OrderFields(o, firestore.ServerTimestamp)); err != nil {
		return "", fmt.Errorf("firestore: create order: %w", err)
	}
	return ref.ID, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]orderdom.Order, error) {
	if err := r.s.ok(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, orderdom.ErrInvalidUserID
	}
	docs, err := r.s.orders(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore: list orders: %w", err)
	}
	out := make([]orderdom.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, record.OrderFromFields(uid, d.Ref.ID, d.Data()))
	}
	return out, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, userID, id string) (orderdom.Order, error) {
	if err := r.s.ok(); err != nil {
		return orderdom.Order{}, err
	}
	uid, oid := strings.TrimSpace(userID), strings.TrimSpace(id)
	if uid == "" || oid == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	snap, err := r.s.orders(uid).Doc(oid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return record.OrderFromFields(uid, oid, snap.Data()), nil
}

func (s *Store) MarkPurchased(ctx context.Context, userID, productID string) error {
	if err := s.ok(); err != nil {
		return err
	}
	_, err := s.purchase(strings.TrimSpace(userID), strings.TrimSpace(productID)).
		Set(ctx, map[string]any{"purchased": true})
	return err
}

func (s *Store) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	if err := s.ok(); err != nil {
		return false, err
	}
	snap, err := s.purchase(strings.TrimSpace(userID), strings.TrimSpace(productID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	b, _ := snap.Data()["purchased"].(bool)
	return b, nil
}

// ============================================================
// role.Repository
// ============================================================

func (s *Store) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if err := s.ok(); err != nil {
		return false, err
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return false, nil
	}
	snap, err := s.role(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, err
	}
	b, _ := snap.Data()["isAdmin"].(bool)
	return b, nil
}

func (s *Store) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	if err := s.ok(); err != nil {
		return err
	}
	_, err := s.role(strings.TrimSpace(uid)).Set(ctx, map[string]any{"isAdmin": isAdmin}, firestore.MergeAll)
	return err
}
