// internal/application/usecase/catalog_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"

	productdom "storefront/internal/domain/product"
)

// SupportedLanguages are the catalog languages. The first entry is the default.
var SupportedLanguages = []language.Tag{language.Arabic, language.English}

var langMatcher = language.NewMatcher(SupportedLanguages)

// MatchLanguage resolves a ?lang= value or an Accept-Language header to a supported tag.
// Languages the catalog does not carry resolve to the default, never to a guessed tag.
func MatchLanguage(explicit, acceptLanguage string) language.Tag {
	if s := strings.TrimSpace(explicit); s != "" {
		if t, err := language.Parse(s); err == nil {
			return matched(langMatcher.Match(t))
		}
	}
	if s := strings.TrimSpace(acceptLanguage); s != "" {
		tags, _, err := language.ParseAcceptLanguage(s)
		if err == nil && len(tags) > 0 {
			return matched(langMatcher.Match(tags...))
		}
	}
	return SupportedLanguages[0]
}

// matched は Match の結果を採用します（conf == No は既定言語）。
func matched(tag language.Tag, _ int, conf language.Confidence) language.Tag {
	if conf == language.No {
		return SupportedLanguages[0]
	}
	return baseTag(tag)
}

func baseTag(t language.Tag) language.Tag {
	b, _ := t.Base()
	if tag, err := language.Compose(b); err == nil {
		return tag
	}
	return t
}

// ProductView is a product projected onto one language.
type ProductView struct {
	ID          string                  `json:"id"`
	Lang        string                  `json:"lang"`
	Name        string                  `json:"name"`
	Desc        string                  `json:"desc"`
	DescExtra   string                  `json:"descExtra"`
	Price       float64                 `json:"price"`
	Stock       *int64                  `json:"stock"`
	CanBuy      bool                    `json:"canBuy"`
	ImageURL    string                  `json:"imageUrl,omitempty"`
	Gallery     []string                `json:"gallery"`
	BeforeAfter *productdom.BeforeAfter `json:"beforeAfter,omitempty"`
}

// LocalizedView projects p for tag. Price, stock and images are language independent.
func LocalizedView(p productdom.Product, tag language.Tag) ProductView {
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return ProductView{
		ID:          p.ID,
		Lang:        tag.String(),
		Name:        p.Name.In(tag),
		Desc:        p.Desc.In(tag),
		DescExtra:   p.DescExtra.In(tag),
		Price:       p.Price,
		Stock:       p.Stock,
		CanBuy:      p.CanBuy(),
		ImageURL:    p.ImageURL,
		Gallery:     gallery,
		BeforeAfter: p.BeforeAfter,
	}
}

var ErrCatalogInvalidArgument = errors.New("catalog: invalid argument")

// CatalogUsecase is the public read side of the catalog.
type CatalogUsecase struct {
	repo productdom.Repository
}

func NewCatalogUsecase(repo productdom.Repository) *CatalogUsecase {
	return &CatalogUsecase{repo: repo}
}

func (u *CatalogUsecase) List(ctx context.Context) ([]productdom.Product, error) {
	return u.repo.List(ctx)
}

func (u *CatalogUsecase) Get(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, ErrCatalogInvalidArgument
	}
	return u.repo.GetByID(ctx, id)
}

// Subscribe streams the catalog: current value first, then every change, until ctx ends.
func (u *CatalogUsecase) Subscribe(ctx context.Context) (<-chan []productdom.Product, error) {
	return u.repo.Subscribe(ctx)
}
