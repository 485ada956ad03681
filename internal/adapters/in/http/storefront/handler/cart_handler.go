// internal/adapters/in/http/storefront/handler/cart_handler.go
package storefrontHandler

import (
	"net/http"

	"storefront/internal/adapters/in/http/middleware"
	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
)

// CartHandler serves the session cart (cart id from the herz-cart cookie).
//
//	GET    /cart
//	DELETE /cart
//	POST   /cart/items              {productId, qty}
//	PUT    /cart/items/{productId}  {qty}
//	DELETE /cart/items/{productId}
type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) http.Handler {
	return &CartHandler{uc: uc}
}

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Stock     *int64  `json:"stock"`
}

type cartResponse struct {
	ID       string             `json:"id"`
	Items    []cartItemResponse `json:"items"`
	Total    string             `json:"total"`
	TotalQty int64              `json:"totalQty"`
}

func toCartResponse(c *cartdom.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemResponse(it))
	}
	return cartResponse{
		ID:       c.ID,
		Items:    items,
		Total:    c.Total().StringFixed(2),
		TotalQty: c.TotalQty(),
	}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	cartID, ok := middleware.CartID(r)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "cart session is not configured")
		return
	}

	seg := splitPath(r.URL.Path, "/cart")
	switch {
	case len(seg) == 0 && r.Method == http.MethodGet:
		c, err := h.uc.Get(r.Context(), cartID)
		h.respond(w, c, err)

	case len(seg) == 0 && r.Method == http.MethodDelete:
		if err := h.uc.Clear(r.Context(), cartID); err != nil {
			writeUsecaseErr(w, "cart_handler", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(seg) == 1 && seg[0] == "items" && r.Method == http.MethodPost:
		var req struct {
			ProductID string `json:"productId"`
			Qty       int64  `json:"qty"`
		}
		if err := readJSON(w, r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		c, err := h.uc.AddItem(r.Context(), cartID, req.ProductID, req.Qty)
		h.respond(w, c, err)

	case len(seg) == 2 && seg[0] == "items" && r.Method == http.MethodPut:
		var req struct {
			Qty int64 `json:"qty"`
		}
		if err := readJSON(w, r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		c, err := h.uc.SetQty(r.Context(), cartID, seg[1], req.Qty)
		h.respond(w, c, err)

	case len(seg) == 2 && seg[0] == "items" && r.Method == http.MethodDelete:
		c, err := h.uc.RemoveItem(r.Context(), cartID, seg[1])
		h.respond(w, c, err)

	case len(seg) <= 2:
		methodNotAllowed(w)

	default:
		notFound(w)
	}
}

func (h *CartHandler) respond(w http.ResponseWriter, c *cartdom.Cart, err error) {
	if err != nil {
		writeUsecaseErr(w, "cart_handler", err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}
