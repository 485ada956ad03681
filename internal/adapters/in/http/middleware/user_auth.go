// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	usecase "storefront/internal/application/usecase"
)

// UserAuthMiddleware verifies Firebase ID token (buyer side) and stores uid/email in context.
//
// Optional=true lets anonymous requests through (no session in ctx); a token that is present
// but invalid is still rejected.
type UserAuthMiddleware struct {
	Verifier TokenVerifier
	Optional bool
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.Verifier == nil {
			writeError(w, http.StatusServiceUnavailable, "user auth middleware not initialized")
			return
		}

		idToken, ok := bearerToken(r)
		if !ok {
			if m.Optional {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "Please sign in to continue.")
			return
		}

		// Firebase ID token verification
		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.Printf("[user_auth] invalid token (len=%d): %v", len(idToken), err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}

		email := claimString(token, "email")

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		if email != "" {
			ctx = context.WithValue(ctx, ctxKeyEmail, email)
		}
		ctx = usecase.WithSession(ctx, usecase.Session{UID: uid, Email: email})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUserUID returns Firebase UID for buyer/user side.
func CurrentUserUID(r *http.Request) (string, bool) {
	u, ok := r.Context().Value(ctxKeyUID).(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}

// CurrentUserUIDAndEmail returns uid/email (email can be empty).
func CurrentUserUIDAndEmail(r *http.Request) (uid string, email string, ok bool) {
	uid, ok = CurrentUserUID(r)
	if !ok {
		return "", "", false
	}
	if e, okEmail := r.Context().Value(ctxKeyEmail).(string); okEmail {
		email = strings.TrimSpace(e)
	}
	return uid, email, true
}
