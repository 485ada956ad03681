// internal/application/usecase/admin_product_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	productdom "storefront/internal/domain/product"
	roledom "storefront/internal/domain/role"
)

// ProductImageStore is an outbound port (object storage). It returns the public URL.
type ProductImageStore interface {
	UploadProductImage(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

var (
	ErrForbidden            = errors.New("usecase: not authorized")
	ErrImageStoreMissing    = errors.New("admin_product: image store is not configured")
	ErrAdminInvalidArgument = errors.New("admin_product: invalid argument")
)

// ProductInput is the admin form payload.
//
// Gallery is either a list or, via GalleryText, the form's "one URL per line" text.
type ProductInput struct {
	Name        productdom.Localized    `json:"name"`
	Desc        productdom.Localized    `json:"desc"`
	DescExtra   productdom.Localized    `json:"descExtra"`
	Price       float64                 `json:"price"`
	Stock       *int64                  `json:"stock"`
	ImageURL    string                  `json:"imageUrl"`
	Gallery     []string                `json:"gallery"`
	GalleryText string                  `json:"galleryText"`
	BeforeAfter *productdom.BeforeAfter `json:"beforeAfter"`
}

func (in ProductInput) toProduct() productdom.Product {
	gallery := in.Gallery
	if strings.TrimSpace(in.GalleryText) != "" {
		gallery = append(append([]string{}, gallery...), productdom.NormalizeGallery(in.GalleryText)...)
	}
	return productdom.Product{
		Name:        in.Name,
		Desc:        in.Desc,
		DescExtra:   in.DescExtra,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		Gallery:     gallery,
		BeforeAfter: in.BeforeAfter,
	}.Normalize()
}

// AdminProductUsecase is product management for admins.
type AdminProductUsecase struct {
	repo   productdom.Repository
	roles  roledom.Repository
	images ProductImageStore
	now    func() time.Time
}

func NewAdminProductUsecase(repo productdom.Repository, roles roledom.Repository, images ProductImageStore) *AdminProductUsecase {
	return &AdminProductUsecase{
		repo:   repo,
		roles:  roles,
		images: images,
		now:    time.Now,
	}
}

// IsAdmin reports whether uid has the admin flag. Lookup errors count as "not admin".
func (u *AdminProductUsecase) IsAdmin(ctx context.Context, uid string) bool {
	uid = strings.TrimSpace(uid)
	if uid == "" || u.roles == nil {
		return false
	}
	ok, err := u.roles.IsAdmin(ctx, uid)
	if err != nil {
		log.Printf("[admin_product_uc] WARN: role lookup failed uid=%s err=%v", uid, err)
		return false
	}
	return ok
}

func (u *AdminProductUsecase) authorize(ctx context.Context) error {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if !u.IsAdmin(ctx, sess.UID) {
		return ErrForbidden
	}
	return nil
}

func (u *AdminProductUsecase) List(ctx context.Context) ([]productdom.Product, error) {
	if err := u.authorize(ctx); err != nil {
		return nil, err
	}
	return u.repo.List(ctx)
}

func (u *AdminProductUsecase) Get(ctx context.Context, id string) (productdom.Product, error) {
	if err := u.authorize(ctx); err != nil {
		return productdom.Product{}, err
	}
	return u.repo.GetByID(ctx, strings.TrimSpace(id))
}

// Create stores a new product; createdAt = updatedAt = now.
func (u *AdminProductUsecase) Create(ctx context.Context, in ProductInput) (productdom.Product, error) {
	if err := u.authorize(ctx); err != nil {
		return productdom.Product{}, err
	}

	p := in.toProduct()
	if err := p.Validate(); err != nil {
		return productdom.Product{}, fmt.Errorf("%w: %w", productdom.ErrInvalid, err)
	}

	now := u.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return u.repo.Create(ctx, p)
}

// Update overwrites the product, keeping createdAt and refreshing updatedAt.
func (u *AdminProductUsecase) Update(ctx context.Context, id string, in ProductInput) (productdom.Product, error) {
	if err := u.authorize(ctx); err != nil {
		return productdom.Product{}, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, ErrAdminInvalidArgument
	}

	current, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return productdom.Product{}, err
	}

	p := in.toProduct()
	if err := p.Validate(); err != nil {
		return productdom.Product{}, fmt.Errorf("%w: %w", productdom.ErrInvalid, err)
	}

	p.ID = id
	p.CreatedAt = current.CreatedAt
	if p.CreatedAt.IsZero() {
		p.CreatedAt = u.now().UTC()
	}
	p.UpdatedAt = u.now().UTC()
	return u.repo.Save(ctx, p)
}

func (u *AdminProductUsecase) Delete(ctx context.Context, id string) error {
	if err := u.authorize(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrAdminInvalidArgument
	}
	return u.repo.Delete(ctx, id)
}

// UploadImage stores an image and returns its public URL.
func (u *AdminProductUsecase) UploadImage(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	if err := u.authorize(ctx); err != nil {
		return "", err
	}
	if u.images == nil {
		return "", ErrImageStoreMissing
	}
	if len(data) == 0 {
		return "", ErrAdminInvalidArgument
	}
	return u.images.UploadProductImage(ctx, fileName, contentType, data)
}
