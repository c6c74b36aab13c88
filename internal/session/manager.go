package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

// Manager loads, saves and clears the persisted session.
type Manager struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewManager(store Store, logger zerolog.Logger) *Manager {
	return &Manager{store: store, log: logger, now: time.Now}
}

// Store exposes the backing store for other session-scoped state (the cart).
func (m *Manager) Store() Store { return m.store }

// Load returns the persisted session. A missing token, or a JWT whose exp
// claim has passed, yields AuthRequiredError.
func (m *Manager) Load(ctx context.Context) (Session, error) {
	token, ok, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return Session{}, fmt.Errorf("read session token: %w", err)
	}
	if !ok || token == "" {
		return Session{}, &apperr.AuthRequiredError{Reason: "not signed in"}
	}

	if expired(token, m.now()) {
		m.log.Info().Msg("stored token expired, clearing session")
		if err := m.End(ctx); err != nil {
			return Session{}, err
		}
		return Session{}, &apperr.AuthRequiredError{Reason: "session expired"}
	}

	s := Session{Token: token}
	if s.UserID, _, err = m.store.Get(ctx, KeyUserID); err != nil {
		return Session{}, fmt.Errorf("read session user: %w", err)
	}
	if s.Username, _, err = m.store.Get(ctx, KeyUsername); err != nil {
		return Session{}, fmt.Errorf("read session username: %w", err)
	}
	role, _, err := m.store.Get(ctx, KeyRole)
	if err != nil {
		return Session{}, fmt.Errorf("read session role: %w", err)
	}
	if s.UserID == "" {
		return Session{}, &apperr.AuthRequiredError{Reason: "user id not found, sign in again"}
	}
	if role != "" {
		if s.Role, err = ParseRole(role); err != nil {
			return Session{}, err
		}
	}
	return s, nil
}

// Start persists a freshly signed-in session.
func (m *Manager) Start(ctx context.Context, s Session) error {
	if !s.Authenticated() {
		return apperr.Invalid("session", "user id and token are required")
	}
	entries := []struct{ k, v string }{
		{KeyToken, s.Token},
		{KeyUserID, s.UserID},
		{KeyRole, string(s.Role)},
		{KeyUsername, s.Username},
	}
	for _, e := range entries {
		if err := m.store.Set(ctx, e.k, e.v); err != nil {
			return fmt.Errorf("persist %s: %w", e.k, err)
		}
	}
	m.log.Info().Str("user_id", s.UserID).Str("role", string(s.Role)).Msg("session started")
	return nil
}

// End removes every persisted session entry, including the cart.
func (m *Manager) End(ctx context.Context) error {
	if err := m.store.Delete(ctx, KeyToken, KeyUserID, KeyRole, KeyUsername, KeyCart); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Invalidate is called when a remote service rejects the credentials.
func (m *Manager) Invalidate(ctx context.Context, reason string) {
	m.log.Warn().Str("reason", reason).Msg("session rejected by server, sign in again")
	if err := m.End(ctx); err != nil {
		m.log.Error().Err(err).Msg("clear rejected session")
	}
}

// expired inspects a JWT without verifying it. Opaque tokens never expire
// locally; the server remains the judge of validity.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
