// internal/platform/di/storefront/container.go
package storefront

import (
	"context"
	"errors"
	"log"

	"storefront/internal/adapters/out/gcs"
	"storefront/internal/adapters/out/mail"
	usecase "storefront/internal/application/usecase"
	shared "storefront/internal/platform/di/shared"
)

// Container is the storefront DI container.
// Pure DI: build deps only. Routing lives in register.go.
type Container struct {
	Infra  *shared.Infra
	Stores Stores

	CatalogUC      *usecase.CatalogUsecase
	CartUC         *usecase.CartUsecase
	CheckoutUC     *usecase.CheckoutUsecase
	OrderUC        *usecase.OrderUsecase
	AdminProductUC *usecase.AdminProductUsecase

	// nil when SendGrid is not configured
	Mailer *mail.OrderMailer
}

func NewContainer(_ context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil {
		return nil, errors.New("di.storefront: infra is nil")
	}
	cfg := infra.Config

	stores, err := OpenStores(infra)
	if err != nil {
		return nil, err
	}

	// image store (optional)
	var images usecase.ProductImageStore
	if infra.GCS != nil {
		images = gcs.NewProductImageRepositoryGCS(infra.GCS, cfg.ProductImageBucket)
	}

	c := &Container{
		Infra:  infra,
		Stores: stores,

		CatalogUC:      usecase.NewCatalogUsecase(stores.Products),
		CartUC:         usecase.NewCartUsecase(stores.Carts, stores.Products),
		CheckoutUC:     usecase.NewCheckoutUsecase(stores.Carts, stores.Stock, stores.Orders, stores.Purchases),
		OrderUC:        usecase.NewOrderUsecase(stores.Orders),
		AdminProductUC: usecase.NewAdminProductUsecase(stores.Products, stores.Roles, images),
	}

	c.Mailer = mail.NewOrderMailerWithSendGrid(mail.Settings{
		APIKey:      infra.SendGridAPIKey,
		FromAddress: cfg.SendGridFrom,
		FromName:    cfg.SendGridFromName,
		ShopBaseURL: cfg.ShopBaseURL,
		Currency:    cfg.StoreCurrency,
	})
	// typed nil を interface に入れない
	if c.Mailer != nil {
		c.CheckoutUC.WithNotifier(c.Mailer)
	}

	log.Printf("[di.storefront] container ready backend=%s redisCarts=%t images=%t mail=%t",
		stores.Backend, infra.Redis != nil, images != nil, c.Mailer != nil)
	return c, nil
}

// Close releases nothing itself; clients are owned by Infra.
func (c *Container) Close() error { return nil }
