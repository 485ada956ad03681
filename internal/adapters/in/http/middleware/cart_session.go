// internal/adapters/in/http/middleware/cart_session.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CartCookieName is the session cookie holding the cart id.
const CartCookieName = "herz-cart"

// CartSession assigns every client a cart id (uuid) kept in the herz-cart cookie.
type CartSession struct {
	TTL    time.Duration
	Secure bool
}

func (m *CartSession) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(CartCookieName); err == nil {
			if parsed, perr := uuid.Parse(strings.TrimSpace(c.Value)); perr == nil {
				id = parsed.String()
			}
		}

		if id == "" {
			id = uuid.NewString()
			cookie := &http.Cookie{
				Name:     CartCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   m.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if m.TTL > 0 {
				cookie.MaxAge = int(m.TTL.Seconds())
			}
			http.SetCookie(w, cookie)
		}

		ctx := context.WithValue(r.Context(), ctxKeyCartID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CartID returns the cart id assigned by CartSession.
func CartID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(ctxKeyCartID).(string)
	return id, ok && id != ""
}
