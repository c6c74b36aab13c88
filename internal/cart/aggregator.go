// Package cart aggregates the dishes a customer selected before checkout.
package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/dish"
)

type Aggregator struct {
	lines []Line
}

func New() *Aggregator { return &Aggregator{} }

// AddItem merges repeated adds into one line. qty 0 means 1. Unavailable
// dishes are ignored.
func (a *Aggregator) AddItem(d dish.Dish, qty int) error {
	if d.ID == "" {
		return apperr.Invalid("dishId", "is required")
	}
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return apperr.Invalid("quantity", "must be at least 1, got %d", qty)
	}
	if !d.Available {
		return nil
	}

	for i := range a.lines {
		if a.lines[i].DishID == d.ID {
			a.lines[i].Quantity += qty
			return nil
		}
	}

	a.lines = append(a.lines, Line{
		DishID:    d.ID,
		Name:      d.Name,
		UnitPrice: d.Price,
		Quantity:  qty,
	})
	return nil
}

// SetQuantity replaces a line's quantity. Non-positive values are rejected;
// use RemoveItem to drop a line.
func (a *Aggregator) SetQuantity(dishID string, qty int) error {
	if qty <= 0 {
		return apperr.Invalid("quantity", "must be at least 1, got %d", qty)
	}
	i := a.index(dishID)
	if i < 0 {
		return apperr.Invalid("dishId", "%s is not in the cart", dishID)
	}
	a.lines[i].Quantity = qty
	return nil
}

// Adjust changes a line's quantity by delta, never going below 1.
func (a *Aggregator) Adjust(dishID string, delta int) error {
	i := a.index(dishID)
	if i < 0 {
		return apperr.Invalid("dishId", "%s is not in the cart", dishID)
	}
	a.lines[i].Quantity = max(1, a.lines[i].Quantity+delta)
	return nil
}

func (a *Aggregator) RemoveItem(dishID string) {
	i := a.index(dishID)
	if i < 0 {
		return
	}
	a.lines = append(a.lines[:i], a.lines[i+1:]...)
}

// Lines returns a copy of the cart lines in insertion order.
func (a *Aggregator) Lines() []Line {
	out := make([]Line, len(a.lines))
	copy(out, a.lines)
	return out
}

func (a *Aggregator) Len() int { return len(a.lines) }

func (a *Aggregator) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range a.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (a *Aggregator) ToOrderRequest() (OrderRequest, error) {
	if len(a.lines) == 0 {
		return OrderRequest{}, apperr.ErrEmptyCart
	}
	items := make([]RequestItem, 0, len(a.lines))
	for _, l := range a.lines {
		items = append(items, RequestItem{DishID: l.DishID, Quantity: l.Quantity})
	}
	return OrderRequest{items: items}, nil
}

func (a *Aggregator) Clear() { a.lines = nil }

func (a *Aggregator) index(dishID string) int {
	for i := range a.lines {
		if a.lines[i].DishID == dishID {
			return i
		}
	}
	return -1
}

type snapshot struct {
	Lines []Line `json:"lines"`
}

func (a *Aggregator) Snapshot() ([]byte, error) {
	return json.Marshal(snapshot{Lines: a.lines})
}

// Restore replaces the cart with a snapshot, dropping malformed lines.
func (a *Aggregator) Restore(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode cart snapshot: %w", err)
	}
	a.lines = a.lines[:0]
	for _, l := range s.Lines {
		if l.DishID == "" || l.Quantity < 1 {
			continue
		}
		a.lines = append(a.lines, l)
	}
	return nil
}
