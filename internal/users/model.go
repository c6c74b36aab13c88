package users

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type User struct {
	ID       string          `json:"id" yaml:"id"`
	Username string          `json:"username" yaml:"username"`
	Email    string          `json:"email,omitempty" yaml:"email,omitempty"`
	Role     session.Role    `json:"role" yaml:"role"`
	Balance  decimal.Decimal `json:"balance" yaml:"balance"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return apperr.Invalid("username", "is required")
	}
	if c.Password == "" {
		return apperr.Invalid("password", "is required")
	}
	return nil
}

type Registration struct {
	Credentials
	Email string       `json:"email"`
	Role  session.Role `json:"role"`
}

func (r Registration) Validate() error {
	if err := r.Credentials.Validate(); err != nil {
		return err
	}
	if len(r.Password) < 6 {
		return apperr.Invalid("password", "must be at least 6 characters")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return apperr.Invalid("email", "%q is not an email address", r.Email)
	}
	switch r.Role {
	case "", session.RoleCustomer, session.RoleSeller, session.RoleAdmin:
	default:
		return apperr.Invalid("role", "unknown role %q", r.Role)
	}
	return nil
}
