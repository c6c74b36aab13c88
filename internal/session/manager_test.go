package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestManagerStartLoadEnd(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, zerolog.Nop())

	_, err := m.Load(ctx)
	require.ErrorIs(t, err, apperr.ErrAuthRequired)

	in := Session{UserID: "42", Username: "amira", Role: RoleCustomer, Token: "opaque-token"}
	require.NoError(t, m.Start(ctx, in))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	require.NoError(t, store.Set(ctx, KeyCart, `{"lines":[]}`))
	require.NoError(t, m.End(ctx))

	_, err = m.Load(ctx)
	require.ErrorIs(t, err, apperr.ErrAuthRequired)
	_, ok, _ := store.Get(ctx, KeyCart)
	assert.False(t, ok, "cart is cleared with the session")
}

func TestManagerStartRejectsIncompleteSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), zerolog.Nop())
	err := m.Start(context.Background(), Session{UserID: "42"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestManagerExpiredJWT(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, zerolog.Nop())

	require.NoError(t, m.Start(ctx, Session{UserID: "42", Role: RoleSeller, Token: signedToken(t, time.Now().Add(-time.Minute))}))

	_, err := m.Load(ctx)
	var authErr *apperr.AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "session expired", authErr.Reason)

	_, ok, _ := store.Get(ctx, KeyToken)
	assert.False(t, ok, "expired token is removed")
}

func TestManagerValidJWT(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), zerolog.Nop())

	tok := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, m.Start(ctx, Session{UserID: "42", Role: RoleSeller, Token: tok}))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, got.Role)
	assert.Equal(t, tok, got.Token)
}

func TestManagerInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), zerolog.Nop())
	require.NoError(t, m.Start(ctx, Session{UserID: "1", Role: RoleAdmin, Token: "t"}))

	m.Invalidate(ctx, "401 from orders")

	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
}
