// internal/adapters/in/http/storefront/handler/checkout_handler.go
package storefrontHandler

import (
	"log"
	"net/http"
	"strings"

	"storefront/internal/adapters/in/http/middleware"
	usecase "storefront/internal/application/usecase"
)

// CheckoutHandler serves POST /checkout (auth required).
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) http.Handler {
	return &CheckoutHandler{uc: uc}
}

type checkoutRequest struct {
	DeliveryAddress map[string]any `json:"deliveryAddress"`
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "checkout handler is not configured")
		return
	}
	if strings.Trim(r.URL.Path, "/") != "checkout" {
		notFound(w)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	cartID, _ := middleware.CartID(r)

	var req checkoutRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	res, err := h.uc.Checkout(r.Context(), usecase.CheckoutInput{
		CartID:          cartID,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		if n := len(res.FailedReversals); n > 0 {
			log.Printf("[checkout_handler] WARN: checkout failed with %d unreversed reservations (state=%s)", n, res.State)
		}
		writeUsecaseErr(w, "checkout_handler", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"orderId": res.OrderID})
}
