package clients

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/users"
)

type UserClient struct{ c *Client }

func NewUserClient(c *Client) *UserClient { return &UserClient{c: c} }

func (uc *UserClient) Register(ctx context.Context, r users.Registration) (users.User, error) {
	if err := r.Validate(); err != nil {
		return users.User{}, err
	}
	var out dto.User
	err := uc.c.DoJSON(ctx, Request{Method: http.MethodPost, Path: "/api/users/register", Body: dto.NewRegister(r)}, &out)
	if err != nil {
		return users.User{}, err
	}
	return out.ToDomain()
}

// Login exchanges credentials for a session. Users services that issue no
// token get an opaque local one so the session can be persisted.
func (uc *UserClient) Login(ctx context.Context, cred users.Credentials) (session.Session, error) {
	if err := cred.Validate(); err != nil {
		return session.Session{}, err
	}
	var out dto.User
	body := dto.Login{Username: cred.Username, Password: cred.Password}
	if err := uc.c.DoJSON(ctx, Request{Method: http.MethodPost, Path: "/api/users/login", Body: body}, &out); err != nil {
		return session.Session{}, err
	}
	if strings.TrimSpace(out.Token) == "" {
		out.Token = "opaque-" + uuid.NewString()
	}
	return out.Session()
}

func (uc *UserClient) Get(ctx context.Context, s session.Session, userID string) (users.User, error) {
	var out dto.User
	err := uc.c.DoJSON(ctx, Request{Method: http.MethodGet, Path: route("/api/users/id/%s", userID), Session: s}, &out)
	if err != nil {
		return users.User{}, err
	}
	return out.ToDomain()
}

func (uc *UserClient) Profile(ctx context.Context, s session.Session) (users.User, error) {
	if err := s.Require("view profile"); err != nil {
		return users.User{}, err
	}
	return uc.Get(ctx, s, s.UserID)
}

func (uc *UserClient) List(ctx context.Context, s session.Session) ([]users.User, error) {
	if err := s.Require("list users", session.RoleAdmin); err != nil {
		return nil, err
	}
	var out []dto.User
	if err := uc.c.DoJSON(ctx, Request{Method: http.MethodGet, Path: "/api/users", Session: s}, &out); err != nil {
		return nil, err
	}
	res := make([]users.User, 0, len(out))
	for _, u := range out {
		d, err := u.ToDomain()
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

func (uc *UserClient) Delete(ctx context.Context, s session.Session, userID string) error {
	if err := s.Require("delete users", session.RoleAdmin); err != nil {
		return err
	}
	if userID == s.UserID {
		return apperr.Invalid("userId", "admins cannot delete their own account")
	}
	_, err := uc.c.Do(ctx, Request{Method: http.MethodPost, Path: route("/api/users/delete/%s", userID), Session: s})
	return err
}

// Balance reads the raw-number balance route of the users service.
func (uc *UserClient) Balance(ctx context.Context, s session.Session, userID string) (decimal.Decimal, error) {
	var out dto.Balance
	err := uc.c.DoJSON(ctx, Request{Method: http.MethodGet, Path: route("/api/users/%s/balance", userID), Session: s}, &out)
	return out.Balance, err
}
