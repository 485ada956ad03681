// internal/adapters/in/http/storefront/router.go
package storefront

import (
	"log"
	"net/http"

	"storefront/internal/adapters/in/http/middleware"
)

// Deps is the storefront handler set plus the middleware it is wrapped with.
type Deps struct {
	Catalog      http.Handler
	Cart         http.Handler
	Checkout     http.Handler
	Me           http.Handler
	AdminProduct http.Handler

	UserAuth    *middleware.UserAuthMiddleware
	AdminOnly   *middleware.AdminOnly
	CartSession *middleware.CartSession
}

// handleSafe registers pattern with h.
// If h is nil, it logs and registers NotFoundHandler instead.
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Printf("[storefront.router] WARN: nil handler: %s pattern=%s (registering NotFoundHandler)", name, pattern)
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

type chain func(http.Handler) http.Handler

func wrap(h http.Handler, mws ...chain) http.Handler {
	if h == nil {
		return nil
	}
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Register registers storefront routes onto mux.
func Register(mux *http.ServeMux, deps Deps) {
	if mux == nil {
		return
	}

	var auth, admin, cart chain
	if deps.UserAuth != nil {
		auth = deps.UserAuth.Handler
	}
	if deps.AdminOnly != nil {
		admin = deps.AdminOnly.Handler
	}
	if deps.CartSession != nil {
		cart = deps.CartSession.Handler
	}

	// catalog (public)
	handleSafe(mux, "/products", deps.Catalog, "Catalog")
	handleSafe(mux, "/products/", deps.Catalog, "Catalog")

	// cart (cookie session)
	cartH := wrap(deps.Cart, cart)
	handleSafe(mux, "/cart", cartH, "Cart")
	handleSafe(mux, "/cart/", cartH, "Cart")

	// checkout (auth + cookie session)
	handleSafe(mux, "/checkout", wrap(deps.Checkout, auth, cart), "Checkout")

	// me
	meH := wrap(deps.Me, auth)
	handleSafe(mux, "/me", meH, "Me")
	handleSafe(mux, "/me/", meH, "Me")

	// admin
	adminH := wrap(deps.AdminProduct, auth, admin)
	handleSafe(mux, "/admin/products", adminH, "AdminProduct")
	handleSafe(mux, "/admin/products/", adminH, "AdminProduct")
}

// NewHandler builds the full storefront handler: routes + /healthz, wrapped with recover and CORS.
func NewHandler(deps Deps, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	Register(mux, deps)

	// CORS は外側（panic 時の 500 にもヘッダを付ける）
	return middleware.CORS(allowedOrigins)(middleware.Recover(mux))
}
