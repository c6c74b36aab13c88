package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joue-zero/homemade-dishes/internal/middleware"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type claims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type principal struct {
	UserID int64
	Role   session.Role
}

type principalKey struct{}

func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	return p, ok
}

type issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (i issuer) issue(u *userRec) (string, error) {
	now := i.now()
	c := claims{
		Role:     string(u.Role),
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   idString(u.ID),
			Issuer:    "homemade-devbackend",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

func (i issuer) verify(token string) (principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return principal{}, err
	}
	id, ok := parseID(c.Subject)
	if !ok {
		return principal{}, errors.New("token subject is not a user id")
	}
	role, err := session.ParseRole(c.Role)
	if err != nil {
		return principal{}, err
	}
	return principal{UserID: id, Role: role}, nil
}

// requireAuth rejects requests without a valid bearer token, and requests
// whose X-User-Id names somebody else.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if raw == "" {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		p, err := s.tokens.verify(raw)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if uid := middleware.GetUserID(r.Context()); uid != "" && uid != idString(p.UserID) {
			writeError(w, r, http.StatusForbidden, "X-User-Id does not match the token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func requireRole(roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := principalFrom(r.Context())
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "insufficient role")
		})
	}
}
