// Package session holds the identity of the signed-in user and persists it
// between runs. A Session is a plain value handed to every remote call.
package session

import (
	"strings"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalizes role names reported by the users service.
func ParseRole(v string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "CUSTOMER", "USER", "ROLE_CUSTOMER", "ROLE_USER":
		return RoleCustomer, nil
	case "SELLER", "COMPANY", "ROLE_SELLER":
		return RoleSeller, nil
	case "ADMIN", "ROLE_ADMIN":
		return RoleAdmin, nil
	default:
		return "", apperr.Invalid("role", "unknown role %q", v)
	}
}

// Session is the signed-in user's identity and bearer token.
type Session struct {
	UserID   string `json:"userId" yaml:"userId"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Role     Role   `json:"role" yaml:"role"`
	Token    string `json:"-" yaml:"-"`
}

// Authenticated reports whether the session carries credentials.
// It says nothing about server-side validity.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != ""
}

func (s Session) Is(role Role) bool { return s.Role == role }

// Require fails with AuthRequiredError when unauthenticated and with
// ForbiddenError when the role is not one of roles.
func (s Session) Require(action string, roles ...Role) error {
	if !s.Authenticated() {
		return &apperr.AuthRequiredError{Reason: "sign in to " + action}
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return &apperr.ForbiddenError{
		Action: action,
		Reason: "requires role " + strings.Join(names, " or "),
	}
}
