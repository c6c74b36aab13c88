package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/joue-zero/homemade-dishes/internal/cart"
	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

// OrderClient is the orders service. It satisfies order.Remote.
type OrderClient struct{ c *Client }

var _ order.Remote = (*OrderClient)(nil)

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

func (oc *OrderClient) Create(ctx context.Context, s session.Session, req cart.OrderRequest) (order.Order, error) {
	var out dto.Order
	r := Request{Method: http.MethodPost, Path: "/api/orders/user-order", Body: dto.NewCreateOrder(req), Session: s, UserID: true}
	if err := oc.c.DoJSON(ctx, r, &out); err != nil {
		return order.Order{}, err
	}
	return oc.toDomain(out, "")
}

func (oc *OrderClient) Get(ctx context.Context, s session.Session, orderID string) (order.Order, error) {
	var out dto.Order
	r := Request{Method: http.MethodGet, Path: route("/api/orders/%s", orderID), Session: s, UserID: true}
	if err := oc.c.DoJSON(ctx, r, &out); err != nil {
		return order.Order{}, err
	}
	return oc.toDomain(out, "")
}

func (oc *OrderClient) ListForCustomer(ctx context.Context, s session.Session, customerID string) ([]order.Order, error) {
	var out []dto.Order
	r := Request{Method: http.MethodGet, Path: route("/api/orders/customer/%s", customerID), Session: s, UserID: true}
	if err := oc.c.DoJSON(ctx, r, &out); err != nil {
		return nil, err
	}
	return oc.list(out, "")
}

// ListForSeller falls back to the hosts that used to serve seller orders.
func (oc *OrderClient) ListForSeller(ctx context.Context, s session.Session, sellerID string) ([]order.Order, error) {
	var out []dto.Order
	r := Request{Method: http.MethodGet, Path: route("/api/orders/seller/%s", sellerID), Session: s, UserID: true, Fallback: true}
	if err := oc.c.DoJSON(ctx, r, &out); err != nil {
		return nil, err
	}
	return oc.list(out, sellerID)
}

// UpdateStatus sends the target status both as a query parameter and as a
// JSON body; service versions differ in which one they read.
func (oc *OrderClient) UpdateStatus(ctx context.Context, s session.Session, orderID string, to order.Status) (order.Order, error) {
	var out dto.Order
	r := Request{
		Method:  http.MethodPut,
		Path:    route("/api/orders/%s/status", orderID),
		Query:   url.Values{"status": {string(to)}},
		Body:    dto.StatusUpdate{Status: string(to)},
		Session: s,
		UserID:  true,
	}
	if err := oc.c.DoJSON(ctx, r, &out); err != nil {
		return order.Order{}, err
	}
	if out.ID == "" {
		return order.Order{ID: orderID, Status: to}, nil
	}
	return oc.toDomain(out, s.UserID)
}

func (oc *OrderClient) Cancel(ctx context.Context, s session.Session, orderID string) (order.Order, error) {
	var out dto.Order
	r := Request{Method: http.MethodPost, Path: route("/api/orders/%s/cancel", orderID), Session: s, UserID: true}
	if err := oc.c.DoJSON(ctx, r, &out); err != nil {
		return order.Order{}, err
	}
	if out.ID == "" {
		return order.Order{ID: orderID, Status: order.StatusCancelled}, nil
	}
	return oc.toDomain(out, "")
}

func (oc *OrderClient) toDomain(o dto.Order, sellerID string) (order.Order, error) {
	d, err := o.ToDomain(sellerID)
	if err != nil {
		return order.Order{}, fmt.Errorf("%s: %w", oc.c.Name, err)
	}
	return d, nil
}

func (oc *OrderClient) list(in []dto.Order, sellerID string) ([]order.Order, error) {
	out, err := dto.Orders(in, sellerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", oc.c.Name, err)
	}
	return out, nil
}
