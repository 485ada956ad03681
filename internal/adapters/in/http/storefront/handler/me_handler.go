// internal/adapters/in/http/storefront/handler/me_handler.go
package storefrontHandler

import (
	"net/http"

	usecase "storefront/internal/application/usecase"
)

// MeHandler serves the signed-in user's endpoints (auth required).
//
//	GET /me              -> {uid, email, isAdmin}
//	GET /me/orders       -> newest first
//	GET /me/orders/{id}
type MeHandler struct {
	orders *usecase.OrderUsecase
	admin  *usecase.AdminProductUsecase
}

func NewMeHandler(orders *usecase.OrderUsecase, admin *usecase.AdminProductUsecase) http.Handler {
	return &MeHandler{orders: orders, admin: admin}
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	sess, ok := usecase.SessionFromContext(r.Context())
	if !ok {
		writeUsecaseErr(w, "me_handler", usecase.ErrUnauthenticated)
		return
	}

	seg := splitPath(r.URL.Path, "/me")
	switch {
	case len(seg) == 0:
		isAdmin := false
		if h.admin != nil {
			isAdmin = h.admin.IsAdmin(r.Context(), sess.UID)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"uid":     sess.UID,
			"email":   sess.Email,
			"isAdmin": isAdmin,
		})

	case seg[0] == "orders" && h.orders == nil:
		writeErr(w, http.StatusInternalServerError, "order handler is not configured")

	case len(seg) == 1 && seg[0] == "orders":
		list, err := h.orders.ListMine(r.Context())
		if err != nil {
			writeUsecaseErr(w, "me_handler", err)
			return
		}
		writeJSON(w, http.StatusOK, list)

	case len(seg) == 2 && seg[0] == "orders":
		o, err := h.orders.GetMine(r.Context(), seg[1])
		if err != nil {
			writeUsecaseErr(w, "me_handler", err)
			return
		}
		writeJSON(w, http.StatusOK, o)

	default:
		notFound(w)
	}
}
