// internal/adapters/out/db/product_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	dbcommon "storefront/internal/adapters/out/db/common"
	productdom "storefront/internal/domain/product"
)

// Store implements the product, order, purchase and role ports over PostgreSQL.
type Store struct {
	DB *sql.DB

	// DSN is needed by Subscribe (pq.Listener opens its own connection).
	DSN string
}

func NewStore(conn *sql.DB, dsn string) *Store {
	return &Store{DB: conn, DSN: dsn}
}

var ErrDBNil = errors.New("db: connection is nil")

func (s *Store) ok() error {
	if s == nil || s.DB == nil {
		return ErrDBNil
	}
	return nil
}

const productColumns = `
  id, name, name_en, description, description_en, description_extra, description_extra_en,
  price, stock, image_url, gallery, before_url, after_url, created_at, updated_at`

// ========================
// product.Repository
// ========================

func (s *Store) GetByID(ctx context.Context, id string) (productdom.Product, error) {
	if err := s.ok(); err != nil {
		return productdom.Product{}, err
	}
	run := dbcommon.GetRunner(ctx, s.DB)

	row := run.QueryRowContext(ctx, `SELECT`+productColumns+` FROM products WHERE id = $1`, strings.TrimSpace(id))
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return productdom.Product{}, productdom.ErrNotFound
		}
		return productdom.Product{}, err
	}
	return p, nil
}

func (s *Store) List(ctx context.Context) ([]productdom.Product, error) {
	if err := s.ok(); err != nil {
		return nil, err
	}
	run := dbcommon.GetRunner(ctx, s.DB)

	rows, err := run.QueryContext(ctx, `SELECT`+productColumns+` FROM products ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []productdom.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if err := s.ok(); err != nil {
		return productdom.Product{}, err
	}
	run := dbcommon.GetRunner(ctx, s.DB)

	const q = `
INSERT INTO products (
  id, name, name_en, description, description_en, description_extra, description_extra_en,
  price, stock, image_url, gallery, before_url, after_url, created_at, updated_at
) VALUES (
  gen_random_uuid()::text, $1, $2, $3, $4, $5, $6,
  $7, $8, $9, $10, $11, $12, $13, $14
)
RETURNING` + productColumns

	row := run.QueryRowContext(ctx, q, productArgs(p)...)
	out, err := scanProduct(row)
	if err != nil {
		return productdom.Product{}, fmt.Errorf("db: create product: %w", err)
	}
	return out, nil
}

// Save is a full overwrite (upsert by id).
func (s *Store) Save(ctx context.Context, p productdom.Product) (productdom.Product, error) {
	if err := s.ok(); err != nil {
		return productdom.Product{}, err
	}
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	run := dbcommon.GetRunner(ctx, s.DB)

	const q = `
INSERT INTO products (
  name, name_en, description, description_en, description_extra, description_extra_en,
  price, stock, image_url, gallery, before_url, after_url, created_at, updated_at, id
) VALUES (
  $1, $2, $3, $4, $5, $6,
  $7, $8, $9, $10, $11, $12, $13, $14, $15
)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  name_en = EXCLUDED.name_en,
  description = EXCLUDED.description,
  description_en = EXCLUDED.description_en,
  description_extra = EXCLUDED.description_extra,
  description_extra_en = EXCLUDED.description_extra_en,
  price = EXCLUDED.price,
  stock = EXCLUDED.stock,
  image_url = EXCLUDED.image_url,
  gallery = EXCLUDED.gallery,
  before_url = EXCLUDED.before_url,
  after_url = EXCLUDED.after_url,
  created_at = EXCLUDED.created_at,
  updated_at = EXCLUDED.updated_at
RETURNING` + productColumns

	args := append(productArgs(p), p.ID)
	row := run.QueryRowContext(ctx, q, args...)
	out, err := scanProduct(row)
	if err != nil {
		return productdom.Product{}, fmt.Errorf("db: save product %s: %w", p.ID, err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.ok(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.ErrInvalidID
	}
	_, err := dbcommon.GetRunner(ctx, s.DB).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

// ========================
// product.StockUpdater
// ========================

// UpdateStock locks the row (SELECT ... FOR UPDATE), runs fn once and writes the result
// in the same transaction. A missing row is "not committed".
func (s *Store) UpdateStock(ctx context.Context, productID string, fn productdom.StockUpdateFunc) (bool, error) {
	if err := s.ok(); err != nil {
		return false, err
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return false, productdom.ErrInvalidID
	}

	return dbcommon.WithTx(ctx, s.DB, func(ctx context.Context) (bool, error) {
		run := dbcommon.GetRunner(ctx, s.DB)

		var stock sql.NullInt64
		err := run.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, nil
			}
			return false, err
		}

		var current any
		if stock.Valid {
			current = stock.Int64
		}
		next, ok := fn(current)
		if !ok {
			return false, nil
		}

		if _, err := run.ExecContext(ctx, `UPDATE products SET stock = $2 WHERE id = $1`, id, next); err != nil {
			return false, err
		}
		return true, nil
	})
}

// ========================
// helpers
// ========================

func productArgs(p productdom.Product) []any {
	var stock sql.NullInt64
	if p.Stock != nil {
		stock = sql.NullInt64{Int64: *p.Stock, Valid: true}
	}
	var before, after string
	if p.BeforeAfter != nil {
		before, after = p.BeforeAfter.BeforeURL, p.BeforeAfter.AfterURL
	}
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return []any{
		p.Name.Primary, p.Name.En,
		p.Desc.Primary, p.Desc.En,
		p.DescExtra.Primary, p.DescExtra.En,
		p.Price, stock, p.ImageURL, pq.Array(gallery),
		before, after,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}
}

func scanProduct(s dbcommon.RowScanner) (productdom.Product, error) {
	var (
		p             productdom.Product
		stock         sql.NullInt64
		gallery       []string
		before, after string
	)
	if err := s.Scan(
		&p.ID, &p.Name.Primary, &p.Name.En,
		&p.Desc.Primary, &p.Desc.En,
		&p.DescExtra.Primary, &p.DescExtra.En,
		&p.Price, &stock, &p.ImageURL, pq.Array(&gallery),
		&before, &after,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return productdom.Product{}, err
	}

	if stock.Valid {
		p.Stock = productdom.Int64Ptr(stock.Int64)
	}
	if gallery == nil {
		gallery = []string{}
	}
	p.Gallery = gallery
	if ba := (productdom.BeforeAfter{BeforeURL: before, AfterURL: after}); !ba.IsZero() {
		p.BeforeAfter = &ba
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
