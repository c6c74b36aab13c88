package dto

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/cart"
	"github.com/joue-zero/homemade-dishes/internal/order"
)

type OrderItem struct {
	ID       ID               `json:"id,omitempty"`
	DishID   ID               `json:"dishId"`
	DishName string           `json:"dishName,omitempty"`
	Price    decimal.Decimal  `json:"price"`
	Quantity int              `json:"quantity"`
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
	SellerID ID               `json:"sellerId,omitempty"`
}

type OrderUser struct {
	ID       ID     `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Order is the union of every order shape the orders service has served.
type Order struct {
	ID            ID     `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus,omitempty"`

	// customer shape
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	User        *OrderUser       `json:"user,omitempty"`
	Items       []OrderItem      `json:"items,omitempty"`

	// seller shape
	CustomerID         ID               `json:"customerId,omitempty"`
	CustomerName       string           `json:"customerName,omitempty"`
	SellerItems        []OrderItem      `json:"sellerItems,omitempty"`
	SellerSubtotal     *decimal.Decimal `json:"sellerSubtotal,omitempty"`
	TotalOrderAmount   *decimal.Decimal `json:"totalOrderAmount,omitempty"`
	IsMultiSellerOrder bool             `json:"isMultiSellerOrder,omitempty"`

	// legacy shape
	UserID     ID          `json:"userId,omitempty"`
	OrderItems []OrderItem `json:"orderItems,omitempty"`

	CreatedAt Time `json:"createdAt"`
	UpdatedAt Time `json:"updatedAt"`
}

// Shape identifies which order payload version a response uses.
type Shape int

const (
	ShapeCustomer Shape = iota + 1
	ShapeSeller
	ShapeLegacy
)

func (s Shape) String() string {
	switch s {
	case ShapeCustomer:
		return "customer"
	case ShapeSeller:
		return "seller"
	case ShapeLegacy:
		return "legacy"
	}
	return "unknown"
}

func (o Order) Shape() Shape {
	switch {
	case o.SellerItems != nil || o.SellerSubtotal != nil || o.TotalOrderAmount != nil:
		return ShapeSeller
	case o.OrderItems != nil && o.Items == nil:
		return ShapeLegacy
	default:
		return ShapeCustomer
	}
}

// ToDomain normalizes the payload. sellerID tags the items of seller-shaped
// payloads, which only ever contain that seller's lines.
func (o Order) ToDomain(sellerID string) (order.Order, error) {
	if o.ID == "" {
		return order.Order{}, fmt.Errorf("order without id")
	}

	out := order.Order{
		ID:          o.ID.String(),
		CreatedAt:   o.CreatedAt.Time,
		UpdatedAt:   o.UpdatedAt.Time,
		MultiSeller: o.IsMultiSellerOrder,
	}

	if o.Status != "" {
		st, err := order.ParseStatus(o.Status)
		if err != nil {
			return order.Order{}, err
		}
		out.Status = st
	}
	ps, err := order.ParsePaymentStatus(o.PaymentStatus)
	if err != nil {
		return order.Order{}, err
	}
	out.PaymentStatus = ps

	var items []OrderItem
	var total *decimal.Decimal
	switch o.Shape() {
	case ShapeSeller:
		items = o.SellerItems
		total = o.TotalOrderAmount
		out.CustomerID = o.CustomerID.String()
		out.CustomerName = o.CustomerName
		if o.SellerSubtotal != nil {
			out.SellerSubtotal = *o.SellerSubtotal
		}
	case ShapeLegacy:
		items = o.OrderItems
		total = o.TotalAmount
		out.CustomerID = o.UserID.String()
	default:
		items = o.Items
		total = o.TotalAmount
		out.CustomerID = firstNonEmpty(o.CustomerID.String(), o.UserID.String())
		out.CustomerName = o.CustomerName
		if o.User != nil {
			if out.CustomerID == "" {
				out.CustomerID = o.User.ID.String()
			}
			if out.CustomerName == "" {
				out.CustomerName = o.User.Username
			}
		}
	}

	out.Items = make([]order.Item, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return order.Order{}, fmt.Errorf("order %s: item %s has quantity %d", o.ID, it.DishID, it.Quantity)
		}
		di := order.Item{
			ID:        it.ID.String(),
			DishID:    it.DishID.String(),
			DishName:  it.DishName,
			SellerID:  it.SellerID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		}
		if di.SellerID == "" && o.Shape() == ShapeSeller {
			di.SellerID = sellerID
		}
		out.Items = append(out.Items, di)
	}

	if total != nil {
		out.TotalAmount = *total
	} else {
		out.TotalAmount = out.ItemsTotal()
	}
	if o.Shape() == ShapeSeller && o.SellerSubtotal == nil && sellerID != "" {
		out.SellerSubtotal = out.SubtotalFor(sellerID)
	}
	if !out.MultiSeller {
		out.MultiSeller = len(out.Sellers()) > 1
	}
	return out, nil
}

// Orders maps a list, failing on the first malformed entry.
func Orders(in []Order, sellerID string) ([]order.Order, error) {
	out := make([]order.Order, 0, len(in))
	for _, o := range in {
		d, err := o.ToDomain(sellerID)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type CreateOrderItem struct {
	DishID   ID  `json:"dishId"`
	Quantity int `json:"quantity"`
}

// NewCreateOrder is the body of POST /api/orders/user-order.
func NewCreateOrder(req cart.OrderRequest) []CreateOrderItem {
	items := req.Items()
	out := make([]CreateOrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, CreateOrderItem{DishID: ID(it.DishID), Quantity: it.Quantity})
	}
	return out
}

type StatusUpdate struct {
	Status string `json:"status"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
