package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Balance decodes either a bare number or {"userId":..,"balance":..}.
type Balance struct {
	UserID  ID
	Balance decimal.Decimal
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("decode balance: empty body")
	}
	if data[0] != '{' {
		return b.Balance.UnmarshalJSON(data)
	}
	var obj struct {
		UserID  ID               `json:"userId"`
		Balance *decimal.Decimal `json:"balance"`
		Amount  *decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode balance: %w", err)
	}
	switch {
	case obj.Balance != nil:
		b.Balance = *obj.Balance
	case obj.Amount != nil:
		b.Balance = *obj.Amount
	default:
		return fmt.Errorf("decode balance: no balance field in %s", data)
	}
	b.UserID = obj.UserID
	return nil
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UserID  ID              `json:"userId"`
		Balance decimal.Decimal `json:"balance"`
	}{b.UserID, b.Balance})
}

// BalanceCheck is the answer of GET /api/balance/check, a bare boolean or
// {"sufficient":..}.
type BalanceCheck struct {
	Sufficient bool
}

func (c *BalanceCheck) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Sufficient bool `json:"sufficient"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode balance check: %w", err)
		}
		c.Sufficient = obj.Sufficient
		return nil
	}
	return json.Unmarshal(data, &c.Sufficient)
}

type Debit struct {
	Amount decimal.Decimal `json:"amount"`
}
