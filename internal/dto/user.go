package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/users"
)

type User struct {
	ID       ID               `json:"id"`
	Username string           `json:"username"`
	Email    string           `json:"email,omitempty"`
	Role     string           `json:"role,omitempty"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
	// Token is set by login responses that issue one.
	Token string `json:"token,omitempty"`
}

type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Register struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

func NewRegister(r users.Registration) Register {
	return Register{Username: r.Username, Password: r.Password, Email: r.Email, Role: string(r.Role)}
}

func (u User) ToDomain() (users.User, error) {
	out := users.User{ID: u.ID.String(), Username: u.Username, Email: u.Email}
	if u.ID == "" {
		return users.User{}, fmt.Errorf("user without id")
	}
	if u.Role != "" {
		role, err := session.ParseRole(u.Role)
		if err != nil {
			return users.User{}, err
		}
		out.Role = role
	} else {
		out.Role = session.RoleCustomer
	}
	if u.Balance != nil {
		out.Balance = *u.Balance
	}
	return out, nil
}

// Session builds the session for a login response.
func (u User) Session() (session.Session, error) {
	usr, err := u.ToDomain()
	if err != nil {
		return session.Session{}, err
	}
	return session.Session{UserID: usr.ID, Username: usr.Username, Role: usr.Role, Token: u.Token}, nil
}
