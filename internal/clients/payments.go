package clients

import (
	"context"
	"net/http"

	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/payment"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type PaymentClient struct{ c *Client }

var _ payment.Gateway = (*PaymentClient)(nil)

func NewPaymentClient(c *Client) *PaymentClient { return &PaymentClient{c: c} }

// Process submits the payment once. A 2xx answer with success=false is an
// outcome, not an error.
func (pc *PaymentClient) Process(ctx context.Context, s session.Session, orderID string) (payment.Outcome, error) {
	var out dto.PaymentResponse
	r := Request{
		Method:  http.MethodPost,
		Path:    "/api/payments/process",
		Body:    dto.PaymentRequest{OrderID: dto.ID(orderID)},
		Session: s,
		UserID:  true,
	}
	if err := pc.c.DoJSON(ctx, r, &out); err != nil {
		return payment.Outcome{}, err
	}
	return payment.Outcome{
		OrderID:       firstID(out.OrderID.String(), orderID),
		Success:       out.Success,
		Message:       out.Message,
		TransactionID: out.TransactionID,
		At:            out.Timestamp.Time,
	}, nil
}

func (pc *PaymentClient) Status(ctx context.Context, s session.Session, orderID string) (order.PaymentStatus, error) {
	body, err := pc.c.Do(ctx, Request{Method: http.MethodGet, Path: route("/api/payments/status/%s", orderID), Session: s, UserID: true})
	if err != nil {
		return "", err
	}
	return order.ParsePaymentStatus(dto.PaymentStatus(body))
}

func firstID(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
