// internal/adapters/in/http/storefront/handler/helper_handler.go
package storefrontHandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	usecase "storefront/internal/application/usecase"
	cartdom "storefront/internal/domain/cart"
	orderdom "storefront/internal/domain/order"
	productdom "storefront/internal/domain/product"
)

const maxJSONBody = 1 << 20

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": strings.TrimSpace(msg)})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func notFound(w http.ResponseWriter) {
	writeErr(w, http.StatusNotFound, "not_found")
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg)
}

// readJSON decodes a size-limited body that must contain exactly one JSON value.
// An empty body leaves dst untouched.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return errors.New("invalid json: trailing data")
	}
	return nil
}

// splitPath returns the path segments after prefix ("/products/abc" -> ["abc"]).
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// writeUsecaseErr maps usecase/domain errors to a status and a single human-readable message.
func writeUsecaseErr(w http.ResponseWriter, tag string, err error) {
	var ise *usecase.InsufficientStockError

	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		writeErr(w, http.StatusUnauthorized, "Please sign in to continue.")
	case errors.Is(err, usecase.ErrForbidden):
		writeErr(w, http.StatusForbidden, "Not authorized")
	case errors.Is(err, usecase.ErrEmptyCart):
		writeErr(w, http.StatusBadRequest, "Cart is empty.")
	case errors.As(err, &ise):
		writeErr(w, http.StatusConflict, "Not enough stock for "+ise.DisplayName())
	case errors.Is(err, usecase.ErrOutOfStock):
		writeErr(w, http.StatusConflict, "This product is out of stock.")
	case errors.Is(err, usecase.ErrReserveFailed), errors.Is(err, usecase.ErrCommitFailed):
		log.Printf("[%s] checkout failed: %v", tag, err)
		writeErr(w, http.StatusBadGateway, "Checkout failed. Please try again.")
	case errors.Is(err, productdom.ErrNotFound), errors.Is(err, orderdom.ErrNotFound):
		notFound(w)
	case errors.Is(err, productdom.ErrInvalid),
		errors.Is(err, usecase.ErrCartInvalidArgument),
		errors.Is(err, usecase.ErrCatalogInvalidArgument),
		errors.Is(err, usecase.ErrAdminInvalidArgument),
		errors.Is(err, cartdom.ErrInvalidItem),
		errors.Is(err, orderdom.ErrInvalidOrderID):
		badRequest(w, err.Error())
	default:
		log.Printf("[%s] ERROR: %v", tag, err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}
