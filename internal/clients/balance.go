package clients

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/payment"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type BalanceClient struct {
	c *Client
	// users serves the raw-number balance route when the balance service
	// cannot answer a read.
	users *UserClient
}

var _ payment.BalanceSource = (*BalanceClient)(nil)

func NewBalanceClient(c *Client, users *UserClient) *BalanceClient {
	return &BalanceClient{c: c, users: users}
}

func (bc *BalanceClient) Balance(ctx context.Context, s session.Session) (decimal.Decimal, error) {
	if err := s.Require("view balance"); err != nil {
		return decimal.Zero, err
	}
	var out dto.Balance
	err := bc.c.DoJSON(ctx, Request{Method: http.MethodGet, Path: "/api/balance", Session: s, UserID: true}, &out)
	if err == nil {
		return out.Balance, nil
	}
	if bc.users == nil || !fallbackWorthy(err) {
		return decimal.Zero, err
	}
	bal, ferr := bc.users.Balance(ctx, s, s.UserID)
	if ferr != nil {
		return decimal.Zero, errors.Join(err, ferr)
	}
	return bal, nil
}

// Check asks the balance service whether amount can be paid.
func (bc *BalanceClient) Check(ctx context.Context, s session.Session, amount decimal.Decimal) (bool, error) {
	if err := s.Require("check balance"); err != nil {
		return false, err
	}
	amt, err := cents(amount)
	if err != nil {
		return false, err
	}
	var out dto.BalanceCheck
	r := Request{
		Method:  http.MethodGet,
		Path:    "/api/balance/check",
		Query:   url.Values{"amount": {amt}},
		Session: s,
		UserID:  true,
	}
	if err := bc.c.DoJSON(ctx, r, &out); err != nil {
		return false, err
	}
	return out.Sufficient, nil
}

// Debit subtracts amount server-side and returns the new balance. The
// server rejects overdrafts.
func (bc *BalanceClient) Debit(ctx context.Context, s session.Session, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := s.Require("update balance"); err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, apperr.Invalid("amount", "must be greater than zero")
	}
	amt, err := cents(amount)
	if err != nil {
		return decimal.Zero, err
	}
	var out dto.Balance
	r := Request{
		Method:  http.MethodPost,
		Path:    "/api/balance/update",
		Query:   url.Values{"amount": {amt}},
		Session: s,
		UserID:  true,
	}
	if err := bc.c.DoJSON(ctx, r, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

// cents formats a money amount for the wire. Sub-cent amounts are refused
// rather than rounded.
func cents(amount decimal.Decimal) (string, error) {
	if !amount.Equal(amount.Truncate(2)) {
		return "", apperr.Invalid("amount", "%s has more than two decimal places", amount.String())
	}
	return amount.StringFixed(2), nil
}
