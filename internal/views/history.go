// Package views projects tracked orders into what customers and sellers see.
package views

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

// CustomerHistory returns the session user's own orders, newest first.
func CustomerHistory(orders []order.Order, s session.Session) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if o.CustomerID == s.UserID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// SalesRow is one paid order as its seller sees it.
type SalesRow struct {
	OrderID        string          `json:"orderId" yaml:"orderId"`
	CustomerID     string          `json:"customerId" yaml:"customerId"`
	CustomerName   string          `json:"customerName,omitempty" yaml:"customerName,omitempty"`
	Status         order.Status    `json:"status" yaml:"status"`
	Items          []order.Item    `json:"items" yaml:"items"`
	SellerSubtotal decimal.Decimal `json:"sellerSubtotal" yaml:"sellerSubtotal"`
	OrderTotal     decimal.Decimal `json:"orderTotal" yaml:"orderTotal"`
	MultiSeller    bool            `json:"multiSeller" yaml:"multiSeller"`
	CreatedAt      time.Time       `json:"createdAt" yaml:"createdAt"`
}

// SalesHistory keeps the paid orders containing the session seller's dishes.
// Subtotals count only that seller's items.
func SalesHistory(orders []order.Order, s session.Session) []SalesRow {
	var rows []SalesRow
	for _, o := range orders {
		if o.PaymentStatus != order.PaymentPaid || !o.HasSeller(s.UserID) {
			continue
		}
		items := o.ItemsFor(s.UserID)
		rows = append(rows, SalesRow{
			OrderID:        o.ID,
			CustomerID:     o.CustomerID,
			CustomerName:   o.CustomerName,
			Status:         o.Status,
			Items:          items,
			SellerSubtotal: o.SubtotalFor(s.UserID),
			OrderTotal:     o.TotalAmount,
			MultiSeller:    o.MultiSeller || len(o.Sellers()) > 1,
			CreatedAt:      o.CreatedAt,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows
}

// Revenue sums the seller subtotals of rows.
func Revenue(rows []SalesRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.SellerSubtotal)
	}
	return total
}
