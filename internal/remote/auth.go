package remote

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenContextKey is a private type for context keys defined in this package.
type tokenContextKey struct{}

var tokenKey = tokenContextKey{}

// WithToken returns a copy of ctx carrying a session token. A token
// threaded through the context takes precedence over the session the
// client was constructed with, so per-request credentials never depend
// on hidden global state.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the session token stored in ctx, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// Session holds the credential shared across requests to the task
// service. Its lifecycle is explicit: set on login or startup, cleared
// on logout. Nothing inside the sync engine consults it directly; the
// HTTP client reads it when building a request.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// SetToken stores the credential. Called on login or startup.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the credential. Called on logout.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Token returns the stored credential and whether one is set.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Expired reports whether the stored credential is a JWT whose expiry
// claim has passed. The signature is not verified here; that is the
// server's job. A token that is not a JWT or carries no expiry claim is
// treated as non-expiring.
func (s *Session) Expired(now time.Time) bool {
	token, ok := s.Token()
	if !ok {
		return false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(now)
}
