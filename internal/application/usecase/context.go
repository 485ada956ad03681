// internal/application/usecase/context.go
package usecase

import (
	"context"
	"strings"
)

// Session is the authenticated caller (identity provider uid, optional email).
type Session struct {
	UID   string
	Email string
}

// usecase 層で使う context key
type ctxKey string

const ctxKeySession ctxKey = "session"

// WithSession attaches the caller to ctx. An empty uid leaves ctx unchanged.
func WithSession(ctx context.Context, s Session) context.Context {
	s.UID = strings.TrimSpace(s.UID)
	s.Email = strings.TrimSpace(s.Email)
	if s.UID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the caller, ok=false when nobody is signed in.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(Session)
	if !ok || s.UID == "" {
		return Session{}, false
	}
	return s, true
}
