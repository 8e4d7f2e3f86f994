package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloshop-client/internal/domain"
	"veloshop-client/internal/session"
)

const secret = "unit-test-secret"

func signedToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type recordingListener struct {
	logins  int
	logouts int
	// modeAtLogin captures what a subscriber observes during notification.
	modeAtLogin session.Mode
	provider    *session.Provider
}

func (l *recordingListener) OnLogin(ctx context.Context) {
	l.logins++
	l.modeAtLogin = l.provider.Mode()
}

func (l *recordingListener) OnLogout() { l.logouts++ }

func TestDefaultsToLocalMode(t *testing.T) {
	p := session.NewProvider(secret)

	assert.False(t, p.IsAuthenticated())
	assert.Equal(t, session.ModeLocal, p.Mode())

	_, ok := p.Current()
	assert.False(t, ok)
}

func TestValidSessionResolvesRemoteMode(t *testing.T) {
	p := session.NewProvider(secret)
	p.SetSession(t.Context(), &domain.User{ID: "u1"}, signedToken(t, secret, time.Hour))

	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, session.ModeRemote, p.Mode())

	user, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}

func TestAuthenticationRequiresBothUserAndToken(t *testing.T) {
	token := signedToken(t, secret, time.Hour)

	tests := []struct {
		name  string
		user  *domain.User
		token string
	}{
		{name: "token without user", user: nil, token: token},
		{name: "user without token", user: &domain.User{ID: "u1"}, token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := session.NewProvider(secret)
			p.SetSession(t.Context(), tt.user, tt.token)
			assert.Equal(t, session.ModeLocal, p.Mode())
		})
	}
}

func TestExpiredTokenDemotesToLocalMode(t *testing.T) {
	p := session.NewProvider(secret)
	p.SetSession(t.Context(), &domain.User{ID: "u1"}, signedToken(t, secret, -time.Minute))

	assert.False(t, p.IsAuthenticated())
	assert.Equal(t, session.ModeLocal, p.Mode())
}

func TestForgedTokenIsRejectedWithSecret(t *testing.T) {
	p := session.NewProvider(secret)
	p.SetSession(t.Context(), &domain.User{ID: "u1"}, signedToken(t, "other-secret", time.Hour))

	assert.False(t, p.IsAuthenticated())
}

func TestWithoutSecretOnlyExpiryIsChecked(t *testing.T) {
	p := session.NewProvider("")
	user := &domain.User{ID: "u1"}

	p.SetSession(t.Context(), user, signedToken(t, "whatever", time.Hour))
	assert.True(t, p.IsAuthenticated())

	p.SetSession(t.Context(), user, signedToken(t, "whatever", -time.Minute))
	assert.False(t, p.IsAuthenticated())

	p.SetSession(t.Context(), user, "garbage")
	assert.False(t, p.IsAuthenticated())
}

func TestListenersAreNotified(t *testing.T) {
	p := session.NewProvider(secret)
	l := &recordingListener{provider: p}
	p.Subscribe(l)

	p.SetSession(t.Context(), &domain.User{ID: "u1"}, signedToken(t, secret, time.Hour))
	assert.Equal(t, 1, l.logins)
	assert.Equal(t, session.ModeRemote, l.modeAtLogin, "subscribers see the new mode during notification")

	p.Clear()
	assert.Equal(t, 1, l.logouts)
	assert.Equal(t, session.ModeLocal, p.Mode())
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	p := session.NewProvider(secret)

	var order []string
	p.Subscribe(listenerFunc(func() { order = append(order, "cart") }))
	p.Subscribe(listenerFunc(func() { order = append(order, "favorites") }))

	p.SetSession(t.Context(), &domain.User{ID: "u1"}, signedToken(t, secret, time.Hour))
	assert.Equal(t, []string{"cart", "favorites"}, order)
}

type listenerFunc func()

func (f listenerFunc) OnLogin(ctx context.Context) { f() }
func (f listenerFunc) OnLogout()                   { f() }
