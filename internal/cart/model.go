package cart

import "github.com/shopspring/decimal"

// Line is one dish in the cart. Quantity is always at least 1.
type Line struct {
	DishID    string          `json:"dishId" yaml:"dishId"`
	Name      string          `json:"name" yaml:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type RequestItem struct {
	DishID   string `json:"dishId"`
	Quantity int    `json:"quantity"`
}

// OrderRequest is an immutable snapshot of the cart taken at submission.
type OrderRequest struct {
	items []RequestItem
}

// Items returns a copy of the requested lines.
func (r OrderRequest) Items() []RequestItem {
	out := make([]RequestItem, len(r.items))
	copy(out, r.items)
	return out
}

func (r OrderRequest) Len() int { return len(r.items) }
