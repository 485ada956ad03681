// internal/domain/product/entity.go
package product

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ===============================
// Types
// ===============================

// Localized holds a text in the store's primary language plus its English variant.
// Persisted as `<field>` / `<field>_en`.
type Localized struct {
	Primary string `json:"primary"`
	En      string `json:"en,omitempty"`
}

// In returns the text for tag. English tags fall back to Primary when En is empty.
func (l Localized) In(tag language.Tag) string {
	base, _ := tag.Base()
	en, _ := language.English.Base()
	if base == en && strings.TrimSpace(l.En) != "" {
		return l.En
	}
	return l.Primary
}

// BeforeAfter is an optional before/after image pair.
type BeforeAfter struct {
	BeforeURL string `json:"beforeUrl,omitempty"`
	AfterURL  string `json:"afterUrl,omitempty"`
}

// IsZero reports whether neither URL is set.
func (b *BeforeAfter) IsZero() bool {
	return b == nil || (strings.TrimSpace(b.BeforeURL) == "" && strings.TrimSpace(b.AfterURL) == "")
}

// Product is a catalog entry stored at products/{id}.
//
// Stock == nil means the product is not stock-tracked.
type Product struct {
	ID          string       `json:"id"`
	Name        Localized    `json:"name"`
	Desc        Localized    `json:"desc"`
	DescExtra   Localized    `json:"descExtra"`
	Price       float64      `json:"price"`
	Stock       *int64       `json:"stock"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Gallery     []string     `json:"gallery"`
	BeforeAfter *BeforeAfter `json:"beforeAfter,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ===============================
// Errors
// ===============================

var (
	ErrNotFound     = errors.New("product: not found")
	ErrInvalid      = errors.New("product: invalid")
	ErrInvalidID    = errors.New("product: invalid id")
	ErrInvalidName  = errors.New("product: name is required")
	ErrInvalidPrice = errors.New("product: price must be >= 0")
	ErrInvalidStock = errors.New("product: stock must be >= 0")
)

// ===============================
// Behavior
// ===============================

// Validate checks the persisted invariants (price >= 0, stock >= 0 when tracked).
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name.Primary) == "" {
		return ErrInvalidName
	}
	if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return ErrInvalidPrice
	}
	if p.Stock != nil && *p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// CanBuy reports whether the product may be added to a cart.
func (p Product) CanBuy() bool {
	return p.Stock == nil || *p.Stock > 0
}

// Normalize trims text fields and drops empty gallery entries / empty before-after pairs.
func (p Product) Normalize() Product {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = trimLocalized(p.Name)
	p.Desc = trimLocalized(p.Desc)
	p.DescExtra = trimLocalized(p.DescExtra)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.Gallery = normalizeURLs(p.Gallery)
	if p.BeforeAfter != nil {
		ba := BeforeAfter{
			BeforeURL: strings.TrimSpace(p.BeforeAfter.BeforeURL),
			AfterURL:  strings.TrimSpace(p.BeforeAfter.AfterURL),
		}
		if ba.IsZero() {
			p.BeforeAfter = nil
		} else {
			p.BeforeAfter = &ba
		}
	}
	return p
}

// NormalizeGallery splits the admin form's "one URL per line" text.
func NormalizeGallery(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return normalizeURLs(strings.Split(raw, "\n"))
}

// Int64Ptr is a small helper for building tracked stock values.
func Int64Ptr(v int64) *int64 {
	return &v
}

func trimLocalized(l Localized) Localized {
	return Localized{
		Primary: strings.TrimSpace(l.Primary),
		En:      strings.TrimSpace(l.En),
	}
}

func normalizeURLs(src []string) []string {
	out := make([]string, 0, len(src))
	for _, s := range src {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SortCatalog orders a catalog by creation time, then id.
func SortCatalog(ps []Product) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
