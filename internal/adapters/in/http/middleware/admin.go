// internal/adapters/in/http/middleware/admin.go
package middleware

import (
	"log"
	"net/http"

	roledom "storefront/internal/domain/role"
)

// AdminOnly gates a handler on roles/{uid}/isAdmin. Run it after UserAuthMiddleware.
// Role lookup errors are treated as "not admin".
type AdminOnly struct {
	Roles roledom.Repository
}

func (m *AdminOnly) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := CurrentUserUID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Please sign in to continue.")
			return
		}
		if m == nil || m.Roles == nil {
			writeError(w, http.StatusForbidden, "Not authorized")
			return
		}

		isAdmin, err := m.Roles.IsAdmin(r.Context(), uid)
		if err != nil {
			log.Printf("[admin_only] WARN: role lookup failed uid=%s err=%v", uid, err)
		}
		if err != nil || !isAdmin {
			writeError(w, http.StatusForbidden, "Not authorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
