// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient は firebase auth クライアントのエイリアス。
type FirebaseAuthClient = fbauth.Client

// TokenVerifier is the part of the Firebase auth client the middleware needs.
// *FirebaseAuthClient satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// context key は string を使わず、衝突回避のため独自型を使用（SA1029 対策）
type ctxKey struct{ name string }

var (
	ctxKeyUID    = ctxKey{name: "uid"}
	ctxKeyEmail  = ctxKey{name: "email"}
	ctxKeyCartID = ctxKey{name: "cartId"}
)

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return idToken, idToken != ""
}

func claimString(tok *fbauth.Token, key string) string {
	if tok == nil || tok.Claims == nil {
		return ""
	}
	if s, ok := tok.Claims[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
