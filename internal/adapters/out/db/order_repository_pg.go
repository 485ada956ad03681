// internal/adapters/out/db/order_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbcommon "storefront/internal/adapters/out/db/common"
	orderdom "storefront/internal/domain/order"
)

// Orders is the order.Repository view of the store.
func (s *Store) Orders() *OrderRepositoryPG { return &OrderRepositoryPG{s: s} }

type OrderRepositoryPG struct{ s *Store }

const orderColumns = `id, user_id, status, total, items, delivery_address, created_at`

func (r *OrderRepositoryPG) Create(ctx context.Context, o orderdom.Order) (string, error) {
	if err := r.s.ok(); err != nil {
		return "", err
	}
	uid := strings.TrimSpace(o.UserID)
	if uid == "" {
		return "", orderdom.ErrInvalidUserID
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return "", fmt.Errorf("db: encode order items: %w", err)
	}
	addr := o.DeliveryAddress
	if addr == nil {
		addr = map[string]any{}
	}
	addrJSON, err := json.Marshal(addr)
	if err != nil {
		return "", fmt.Errorf("db: encode delivery address: %w", err)
	}

	const q = `
INSERT INTO orders (user_id, status, total, items, delivery_address)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

	var id string
	if err := dbcommon.GetRunner(ctx, r.s.DB).QueryRowContext(ctx, q,
		uid, o.Status, o.Total, string(items), string(addrJSON),
	).Scan(&id); err != nil {
		return "", fmt.Errorf("db: create order: %w", err)
	}
	return id, nil
}

func (r *OrderRepositoryPG) ListByUser(ctx context.Context, userID string) ([]orderdom.Order, error) {
	if err := r.s.ok(); err != nil {
		return nil, err
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, orderdom.ErrInvalidUserID
	}

	rows, err := dbcommon.GetRunner(ctx, r.s.DB).QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []orderdom.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepositoryPG) GetByID(ctx context.Context, userID, id string) (orderdom.Order, error) {
	if err := r.s.ok(); err != nil {
		return orderdom.Order{}, err
	}
	uid, oid := strings.TrimSpace(userID), strings.TrimSpace(id)
	if uid == "" || oid == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}

	row := dbcommon.GetRunner(ctx, r.s.DB).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND id = $2`, uid, oid)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return o, nil
}

func scanOrder(s dbcommon.RowScanner) (orderdom.Order, error) {
	var (
		o             orderdom.Order
		items, addrJS []byte
	)
	if err := s.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &items, &addrJS, &o.CreatedAt); err != nil {
		return orderdom.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return orderdom.Order{}, fmt.Errorf("db: decode order items %s: %w", o.ID, err)
	}
	o.DeliveryAddress = map[string]any{}
	if len(addrJS) > 0 {
		if err := json.Unmarshal(addrJS, &o.DeliveryAddress); err != nil {
			return orderdom.Order{}, fmt.Errorf("db: decode delivery address %s: %w", o.ID, err)
		}
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

// ========================
// order.PurchaseRepository
// ========================

func (s *Store) MarkPurchased(ctx context.Context, userID, productID string) error {
	if err := s.ok(); err != nil {
		return err
	}
	_, err := dbcommon.GetRunner(ctx, s.DB).ExecContext(ctx, `
INSERT INTO purchases (user_id, product_id) VALUES ($1, $2)
ON CONFLICT (user_id, product_id) DO NOTHING`,
		strings.TrimSpace(userID), strings.TrimSpace(productID))
	return err
}

func (s *Store) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	if err := s.ok(); err != nil {
		return false, err
	}
	var exists bool
	err := dbcommon.GetRunner(ctx, s.DB).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = $1 AND product_id = $2)`,
		strings.TrimSpace(userID), strings.TrimSpace(productID),
	).Scan(&exists)
	return exists, err
}

// ========================
// role.Repository
// ========================

func (s *Store) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if err := s.ok(); err != nil {
		return false, err
	}
	var isAdmin bool
	err := dbcommon.GetRunner(ctx, s.DB).QueryRowContext(ctx,
		`SELECT is_admin FROM roles WHERE uid = $1`, strings.TrimSpace(uid)).Scan(&isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return isAdmin, err
}

func (s *Store) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	if err := s.ok(); err != nil {
		return err
	}
	_, err := dbcommon.GetRunner(ctx, s.DB).ExecContext(ctx, `
INSERT INTO roles (uid, is_admin) VALUES ($1, $2)
ON CONFLICT (uid) DO UPDATE SET is_admin = EXCLUDED.is_admin`,
		strings.TrimSpace(uid), isAdmin)
	return err
}
