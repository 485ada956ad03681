// internal/platform/di/storefront/register.go
package storefront

import (
	"log"
	"net/http"
	"strings"

	"storefront/internal/adapters/in/http/middleware"
	storefronthttp "storefront/internal/adapters/in/http/storefront"
	handler "storefront/internal/adapters/in/http/storefront/handler"
)

// Deps builds the handler set for cont.
func Deps(cont *Container) storefronthttp.Deps {
	cfg := cont.Infra.Config

	var userAuth *middleware.UserAuthMiddleware
	if cont.Infra.FirebaseAuth != nil {
		userAuth = &middleware.UserAuthMiddleware{Verifier: cont.Infra.FirebaseAuth}
	} else {
		// Verifier なし: 認証ルートは 503
		log.Printf("[storefront.register] WARN: firebase auth is not initialized; signed-in routes return 503")
		userAuth = &middleware.UserAuthMiddleware{}
	}

	return storefronthttp.Deps{
		Catalog:      handler.NewCatalogHandler(cont.CatalogUC, handler.SameOriginOrAllowed(cfg.CORSAllowedOrigins)),
		Cart:         handler.NewCartHandler(cont.CartUC),
		Checkout:     handler.NewCheckoutHandler(cont.CheckoutUC),
		Me:           handler.NewMeHandler(cont.OrderUC, cont.AdminProductUC),
		AdminProduct: handler.NewAdminProductHandler(cont.AdminProductUC),

		UserAuth:    userAuth,
		AdminOnly:   &middleware.AdminOnly{Roles: cont.Stores.Roles},
		CartSession: &middleware.CartSession{TTL: cfg.CartTTL, Secure: strings.HasPrefix(cfg.ShopBaseURL, "https://")},
	}
}

// Register registers storefront routes onto mux.
func Register(mux *http.ServeMux, cont *Container) {
	if mux == nil || cont == nil {
		return
	}
	storefronthttp.Register(mux, Deps(cont))
}

// NewHandler is the full storefront handler (routes + /healthz + recover + CORS).
func NewHandler(cont *Container) http.Handler {
	return storefronthttp.NewHandler(Deps(cont), cont.Infra.Config.CORSAllowedOrigins)
}
