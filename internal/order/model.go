package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is an order line. UnitPrice is the dish price when the order was
// placed and never changes afterwards.
type Item struct {
	ID        string          `json:"id,omitempty" yaml:"id,omitempty"`
	DishID    string          `json:"dishId" yaml:"dishId"`
	DishName  string          `json:"dishName" yaml:"dishName"`
	SellerID  string          `json:"sellerId,omitempty" yaml:"sellerId,omitempty"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID             string          `json:"id" yaml:"id"`
	CustomerID     string          `json:"customerId" yaml:"customerId"`
	CustomerName   string          `json:"customerName,omitempty" yaml:"customerName,omitempty"`
	Items          []Item          `json:"items" yaml:"items"`
	Status         Status          `json:"status" yaml:"status"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus,omitempty" yaml:"paymentStatus,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount" yaml:"totalAmount"`
	SellerSubtotal decimal.Decimal `json:"sellerSubtotal,omitempty" yaml:"sellerSubtotal,omitempty"`
	MultiSeller    bool            `json:"multiSeller,omitempty" yaml:"multiSeller,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// ItemsTotal sums price x quantity over all items.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (o Order) HasSeller(sellerID string) bool {
	if sellerID == "" {
		return false
	}
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (o Order) ItemsFor(sellerID string) []Item {
	var out []Item
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			out = append(out, it)
		}
	}
	return out
}

// SubtotalFor sums only the items sold by sellerID.
func (o Order) SubtotalFor(sellerID string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.ItemsFor(sellerID) {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Sellers lists distinct seller ids in item order.
func (o Order) Sellers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range o.Items {
		if it.SellerID == "" || seen[it.SellerID] {
			continue
		}
		seen[it.SellerID] = true
		out = append(out, it.SellerID)
	}
	return out
}

func (o Order) clone() Order {
	c := o
	c.Items = append([]Item(nil), o.Items...)
	return c
}
