package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usecase "storefront/internal/application/usecase"
)

type stubVerifier map[string]*fbauth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

type stubRoles struct {
	admins map[string]bool
	err    error
}

func (s stubRoles) IsAdmin(_ context.Context, uid string) (bool, error) { return s.admins[uid], s.err }
func (s stubRoles) SetAdmin(context.Context, string, bool) error        { return nil }

var verifier = stubVerifier{
	"good":  {UID: "u1", Claims: map[string]any{"email": "u1@example.com"}},
	"admin": {UID: "boss"},
	"nouid": {UID: " "},
}

func sessionEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := usecase.SessionFromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(s.UID + "|" + s.Email))
	})
}

func do(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUserAuthMiddleware(t *testing.T) {
	h := (&UserAuthMiddleware{Verifier: verifier}).Handler(sessionEcho())

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantBody string
	}{
		{"valid", "good", http.StatusOK, "u1|u1@example.com"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"invalid", "forged", http.StatusUnauthorized, ""},
		{"empty uid", "nouid", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestUserAuthMiddleware_Optional(t *testing.T) {
	h := (&UserAuthMiddleware{Verifier: verifier, Optional: true}).Handler(sessionEcho())

	assert.Equal(t, "anonymous", do(h, "").Body.String())
	assert.Equal(t, "u1|u1@example.com", do(h, "good").Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(h, "forged").Code)
}

func TestAdminOnly(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	auth := &UserAuthMiddleware{Verifier: verifier, Optional: true}

	h := auth.Handler((&AdminOnly{Roles: stubRoles{admins: map[string]bool{"boss": true}}}).Handler(ok))
	assert.Equal(t, http.StatusNoContent, do(h, "admin").Code)
	assert.Equal(t, http.StatusForbidden, do(h, "good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, "").Code)

	broken := auth.Handler((&AdminOnly{Roles: stubRoles{
		admins: map[string]bool{"boss": true},
		err:    errors.New("unavailable"),
	}}).Handler(ok))
	rec := do(broken, "admin")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized")
}

func TestCartSession(t *testing.T) {
	var seen string
	h := (&CartSession{}).Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = CartID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CartCookieName, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)

	// an existing cookie is reused, no new cookie issued
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartCookieName, Value: seen})
	rec = httptest.NewRecorder()
	first := seen
	h.ServeHTTP(rec, req)
	assert.Equal(t, first, seen)
	assert.Empty(t, rec.Result().Cookies())

	// garbage is replaced
	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartCookieName, Value: "../../etc"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "../../etc", seen)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := do(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://shop.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
