// cmd/seed_catalog/seed.go
package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	productdom "storefront/internal/domain/product"
	roledom "storefront/internal/domain/role"
)

// seedFile is the YAML layout of a catalog seed.
//
//	admins: [uid1]
//	products:
//	  - id: rose-oil
//	    name: {primary: ..., en: Rose Oil}
//	    price: 120
//	    stock: 10
type seedFile struct {
	Admins   []string      `yaml:"admins"`
	Products []seedProduct `yaml:"products"`
}

type seedText struct {
	Primary string `yaml:"primary"`
	En      string `yaml:"en"`
}

type seedProduct struct {
	ID        string   `yaml:"id"`
	Name      seedText `yaml:"name"`
	Desc      seedText `yaml:"desc"`
	DescExtra seedText `yaml:"descExtra"`
	Price     float64  `yaml:"price"`
	Stock     *int64   `yaml:"stock"`
	ImageURL  string   `yaml:"imageUrl"`
	Gallery   []string `yaml:"gallery"`
	Before    string   `yaml:"beforeUrl"`
	After     string   `yaml:"afterUrl"`
}

func (s seedProduct) toProduct() productdom.Product {
	return productdom.Product{
		ID:          s.ID,
		Name:        productdom.Localized(s.Name),
		Desc:        productdom.Localized(s.Desc),
		DescExtra:   productdom.Localized(s.DescExtra),
		Price:       s.Price,
		Stock:       s.Stock,
		ImageURL:    s.ImageURL,
		Gallery:     s.Gallery,
		BeforeAfter: &productdom.BeforeAfter{BeforeURL: s.Before, AfterURL: s.After},
	}.Normalize()
}

func parseSeed(r io.Reader) (seedFile, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return seedFile{}, fmt.Errorf("seed: decode yaml: %w", err)
	}

	seen := map[string]bool{}
	for i, p := range f.Products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return seedFile{}, fmt.Errorf("seed: products[%d]: id is required", i)
		}
		if seen[id] {
			return seedFile{}, fmt.Errorf("seed: products[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
		if err := p.toProduct().Validate(); err != nil {
			return seedFile{}, fmt.Errorf("seed: products[%d] (%s): %w", i, id, err)
		}
	}
	return f, nil
}

// applySeed upserts every product under its seed id and grants the admin flag.
// Existing products keep their createdAt.
func applySeed(ctx context.Context, f seedFile, products productdom.Repository, roles roledom.Repository, now time.Time) (int, int, error) {
	var np, na int
	for _, sp := range f.Products {
		p := sp.toProduct()
		p.CreatedAt, p.UpdatedAt = now, now
		if cur, err := products.GetByID(ctx, p.ID); err == nil && !cur.CreatedAt.IsZero() {
			p.CreatedAt = cur.CreatedAt
		}
		if _, err := products.Save(ctx, p); err != nil {
			return np, na, fmt.Errorf("seed: save product %s: %w", p.ID, err)
		}
		np++
	}
	for _, uid := range f.Admins {
		uid = strings.TrimSpace(uid)
		if uid == "" {
			continue
		}
		if err := roles.SetAdmin(ctx, uid, true); err != nil {
			return np, na, fmt.Errorf("seed: set admin %s: %w", uid, err)
		}
		na++
	}
	return np, na, nil
}
