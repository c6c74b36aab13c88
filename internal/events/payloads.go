package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/payment"
)

const (
	OrderPlacedEvent        = "OrderPlaced"
	OrderStatusChangedEvent = "OrderStatusChanged"
	PaymentSettledEvent     = "PaymentSettled"
	eventVersion            = 1
)

type OrderItem struct {
	DishID    string          `json:"dishId"`
	SellerID  string          `json:"sellerId,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderPlacedPayload struct {
	OrderID     string          `json:"orderId"`
	CustomerID  string          `json:"customerId"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type OrderStatusChangedPayload struct {
	OrderID       string              `json:"orderId"`
	CustomerID    string              `json:"customerId"`
	From          order.Status        `json:"from"`
	To            order.Status        `json:"to"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus,omitempty"`
}

type PaymentSettledPayload struct {
	OrderID       string              `json:"orderId"`
	UserID        string              `json:"userId"`
	Outcome       order.PaymentStatus `json:"outcome"`
	Amount        decimal.Decimal     `json:"amount"`
	TransactionID string              `json:"transactionId,omitempty"`
	Message       string              `json:"message,omitempty"`
	BalanceAfter  *decimal.Decimal    `json:"balanceAfter,omitempty"`
	SettledAt     time.Time           `json:"settledAt"`
}

type (
	OrderPlacedEnvelope        = EventEnvelope[OrderPlacedPayload]
	OrderStatusChangedEnvelope = EventEnvelope[OrderStatusChangedPayload]
	PaymentSettledEnvelope     = EventEnvelope[PaymentSettledPayload]
)

func BuildOrderPlaced(o order.Order, producer, correlationID string, now time.Time) OrderPlacedEnvelope {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{DishID: it.DishID, SellerID: it.SellerID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return envelope(OrderPlacedEvent, producer, o.ID, correlationID, now, OrderPlacedPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	})
}

func BuildOrderStatusChanged(o order.Order, from order.Status, producer, correlationID string, now time.Time) OrderStatusChangedEnvelope {
	return envelope(OrderStatusChangedEvent, producer, o.ID, correlationID, now, OrderStatusChangedPayload{
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		From:          from,
		To:            o.Status,
		PaymentStatus: o.PaymentStatus,
	})
}

func BuildPaymentSettled(s payment.Settlement, producer, correlationID string, now time.Time) PaymentSettledEnvelope {
	return envelope(PaymentSettledEvent, producer, s.OrderID, correlationID, now, PaymentSettledPayload{
		OrderID:       s.OrderID,
		UserID:        s.UserID,
		Outcome:       s.Outcome,
		Amount:        s.Amount,
		TransactionID: s.TransactionID,
		Message:       s.Message,
		BalanceAfter:  s.BalanceAfter,
		SettledAt:     s.At,
	})
}
