package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veloshop-client/internal/domain"
	"veloshop-client/pkg/logger"
)

// Mode selects the persistence backend for cart and favorites operations.
type Mode int

const (
	// ModeLocal persists state in device-local durable storage only.
	ModeLocal Mode = iota
	// ModeRemote persists state via server calls under the user's record.
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// Listener is notified when the session transitions between anonymous and
// authenticated. OnLogin completes before SetSession returns, so callers see
// a fully migrated engine once login finishes.
type Listener interface {
	OnLogin(ctx context.Context)
	OnLogout()
}

// Provider holds the current authentication state and is the single source
// of truth for mode resolution. The engine subscribes to it; it never issues
// credentials itself.
type Provider struct {
	mu     sync.RWMutex
	user   *domain.User
	token  string
	secret []byte

	listeners []Listener
}

// NewProvider creates a provider. secret, when non-empty, enables full HS256
// signature verification of session credentials; without it the provider
// checks structure and expiry only, since a pure client often cannot hold
// the signing secret.
func NewProvider(secret string) *Provider {
	p := &Provider{}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// Subscribe registers a listener. Registration order is notification order:
// the cart must migrate before favorites load, so wire the cart first.
func (p *Provider) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// SetSession installs an authenticated session and notifies listeners.
// Listener failures are logged, never propagated: a bad cart line must not
// fail the whole login.
func (p *Provider) SetSession(ctx context.Context, user *domain.User, token string) {
	p.mu.Lock()
	p.user = user
	p.token = token
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()

	userID := ""
	if user != nil {
		userID = user.ID
	}
	logger.SessionChange(p.Mode().String(), userID)

	for _, l := range listeners {
		l.OnLogin(ctx)
	}
}

// Clear drops the session and notifies listeners. The remote records are
// untouched; only in-memory engine state is reset.
func (p *Provider) Clear() {
	p.mu.Lock()
	p.user = nil
	p.token = ""
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.Unlock()

	logger.SessionChange(ModeLocal.String(), "")

	for _, l := range listeners {
		l.OnLogout()
	}
}

// Current returns the user record, if any.
func (p *Provider) Current() (*domain.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user, p.user != nil
}

// Token returns the raw session credential for outgoing requests.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// IsAuthenticated requires both a user record and a valid credential.
// Operations must call this (via Mode) at entry and carry the result,
// never re-read it across an await point.
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	user, token := p.user, p.token
	p.mu.RUnlock()

	return user != nil && p.tokenValid(token)
}

// Mode resolves the active persistence backend from the current state.
func (p *Provider) Mode() Mode {
	if p.IsAuthenticated() {
		return ModeRemote
	}
	return ModeLocal
}

func (p *Provider) tokenValid(token string) bool {
	if token == "" {
		return false
	}

	if len(p.secret) > 0 {
		_, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return p.secret, nil
		})
		return err == nil
	}

	// No shared secret on this client: structural check plus expiry.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp == nil {
		return true
	}
	return exp.After(time.Now())
}
