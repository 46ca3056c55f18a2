// Package identity produces and persists the per-installation session token that
// correlates this client with the backend's conversation state.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	mathrand "math/rand/v2"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gemichat/internal/logger"
)

// TokenCookie is the cookie name holding the session token.
const TokenCookie = "token"

// tokenLength is the length of a hex-encoded 16 byte token.
const tokenLength = 32

// Provider returns the session token, creating and persisting it on first use.
type Provider struct {
	store  CookieStore
	secure io.Reader
}

// Option configures a Provider.
type Option func(*Provider)

// WithSecureSource replaces crypto/rand as the token entropy source.
func WithSecureSource(r io.Reader) Option {
	return func(p *Provider) {
		p.secure = r
	}
}

// NewProvider creates a provider backed by store.
func NewProvider(store CookieStore, opts ...Option) *Provider {
	p := &Provider{
		store:  store,
		secure: rand.Reader,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetOrCreateToken returns the stored token, or generates and stores a new one.
// It always returns a usable token; a failure to persist only means the next
// call generates another.
func (p *Provider) GetOrCreateToken() string {
	if token, ok := p.store.Get(TokenCookie); ok && token != "" {
		return token
	}

	token := NewToken(p.secure)
	cookie := &http.Cookie{
		Name:  TokenCookie,
		Value: token,
		Path:  "/",
	}
	if err := p.store.Set(cookie); err != nil {
		logger.Warn("Failed to persist session token", "error", err)
	} else {
		logger.Debug("Created session token", "token", Mask(token))
	}
	return token
}

// NewToken returns a UUID v4 from secure as 32 lowercase hex characters. If secure
// fails it falls back to a pseudo-random hex string with no uniqueness or
// unpredictability guarantee.
func NewToken(secure io.Reader) string {
	u, err := uuid.NewRandomFromReader(secure)
	if err != nil {
		logger.Warn("Secure random source unavailable, using weak session token", "error", err)
		return randomHex(tokenLength)
	}
	return hex.EncodeToString(u[:])
}

func randomHex(length int) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(digits[mathrand.IntN(len(digits))])
	}
	return sb.String()
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if len(secret) < 4 {
		return secret
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
