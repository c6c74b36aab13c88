package order

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/cart"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/staleguard"
)

var ErrUnknownOrder = errors.New("order not tracked")

// Remote is the orders service as seen by the tracker.
type Remote interface {
	Create(ctx context.Context, s session.Session, req cart.OrderRequest) (Order, error)
	Get(ctx context.Context, s session.Session, orderID string) (Order, error)
	ListForCustomer(ctx context.Context, s session.Session, customerID string) ([]Order, error)
	ListForSeller(ctx context.Context, s session.Session, sellerID string) ([]Order, error)
	UpdateStatus(ctx context.Context, s session.Session, orderID string, to Status) (Order, error)
	Cancel(ctx context.Context, s session.Session, orderID string) (Order, error)
}

// Notifier is told about acknowledged order changes. Errors are logged only.
type Notifier interface {
	OrderPlaced(ctx context.Context, o Order) error
	OrderStatusChanged(ctx context.Context, o Order, from Status) error
}

type TrackerConfig struct {
	Policy   CompletionPolicy
	Notifier Notifier
	Guard    *staleguard.Guard
	Logger   zerolog.Logger
}

// Tracker follows the lifecycle of the orders visible to one session.
// Local state only changes after the orders service acknowledged a call.
type Tracker struct {
	remote   Remote
	sess     session.Session
	policy   CompletionPolicy
	notifier Notifier
	guard    *staleguard.Guard
	log      zerolog.Logger

	mu     sync.Mutex
	orders map[string]Order
}

func NewTracker(remote Remote, sess session.Session, cfg TrackerConfig) *Tracker {
	if cfg.Guard == nil {
		cfg.Guard = staleguard.New()
	}
	return &Tracker{
		remote:   remote,
		sess:     sess,
		policy:   cfg.Policy,
		notifier: cfg.Notifier,
		guard:    cfg.Guard,
		log:      cfg.Logger,
		orders:   make(map[string]Order),
	}
}

func (t *Tracker) Session() session.Session { return t.sess }

func (t *Tracker) Policy() CompletionPolicy { return t.policy }

// Submit turns the cart into an order. The cart is cleared only once the
// orders service created the order.
func (t *Tracker) Submit(ctx context.Context, c *cart.Aggregator) (Order, error) {
	if err := t.sess.Require("place orders", session.RoleCustomer); err != nil {
		return Order{}, err
	}
	req, err := c.ToOrderRequest()
	if err != nil {
		return Order{}, err
	}

	o, err := t.remote.Create(ctx, t.sess, req)
	if err != nil {
		return Order{}, fmt.Errorf("submit order: %w", err)
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.CustomerID == "" {
		o.CustomerID = t.sess.UserID
	}
	if len(o.Items) > 0 && !o.ItemsTotal().Equal(o.TotalAmount) {
		t.log.Warn().
			Str("order_id", o.ID).
			Str("total", o.TotalAmount.String()).
			Str("items_total", o.ItemsTotal().String()).
			Msg("order total differs from item prices")
	}

	t.put(o)
	c.Clear()
	t.log.Info().Str("order_id", o.ID).Str("total", o.TotalAmount.StringFixed(2)).Msg("order placed")

	if t.notifier != nil {
		if err := t.notifier.OrderPlaced(ctx, o.clone()); err != nil {
			t.log.Error().Err(err).Str("order_id", o.ID).Msg("notify order placed")
		}
	}
	return o.clone(), nil
}

// Cancel withdraws a pending order on behalf of the customer who placed it.
func (t *Tracker) Cancel(ctx context.Context, orderID string) (Order, error) {
	if err := t.sess.Require("cancel orders", session.RoleCustomer); err != nil {
		return Order{}, err
	}
	o, err := t.current(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if o.CustomerID != "" && o.CustomerID != t.sess.UserID {
		return Order{}, &apperr.ForbiddenError{Action: "cancel orders", Reason: "order belongs to another customer"}
	}
	if o.Status != StatusPending {
		return Order{}, &apperr.InvalidTransitionError{
			OrderID: orderID,
			From:    string(o.Status),
			To:      string(StatusCancelled),
			Reason:  "only pending orders can be cancelled",
		}
	}

	ack, err := t.remote.Cancel(ctx, t.sess, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return t.commit(ctx, o, ack, StatusCancelled), nil
}

func (t *Tracker) Accept(ctx context.Context, orderID string) (Order, error) {
	return t.sellerTransition(ctx, orderID, StatusAccepted, "accept orders")
}

func (t *Tracker) Reject(ctx context.Context, orderID string) (Order, error) {
	return t.sellerTransition(ctx, orderID, StatusRejected, "reject orders")
}

func (t *Tracker) MarkReady(ctx context.Context, orderID string) (Order, error) {
	return t.sellerTransition(ctx, orderID, StatusReady, "mark orders ready")
}

// MarkComplete closes an accepted or ready order. Under CompleteRequiresPaid
// the order must be paid first.
func (t *Tracker) MarkComplete(ctx context.Context, orderID string) (Order, error) {
	return t.sellerTransition(ctx, orderID, StatusCompleted, "complete orders")
}

func (t *Tracker) sellerTransition(ctx context.Context, orderID string, to Status, action string) (Order, error) {
	if err := t.sess.Require(action, session.RoleSeller); err != nil {
		return Order{}, err
	}
	o, err := t.current(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if !o.HasSeller(t.sess.UserID) {
		return Order{}, &apperr.ForbiddenError{Action: action, Reason: "order contains none of your dishes"}
	}
	if !o.Status.CanTransition(to) {
		return Order{}, &apperr.InvalidTransitionError{OrderID: orderID, From: string(o.Status), To: string(to)}
	}
	if to == StatusCompleted && t.policy == CompleteRequiresPaid && o.PaymentStatus != PaymentPaid {
		return Order{}, &apperr.InvalidTransitionError{
			OrderID: orderID,
			From:    string(o.Status),
			To:      string(to),
			Reason:  "order must be paid before completion",
		}
	}

	ack, err := t.remote.UpdateStatus(ctx, t.sess, orderID, to)
	if err != nil {
		return Order{}, fmt.Errorf("update order %s to %s: %w", orderID, to, err)
	}
	return t.commit(ctx, o, ack, to), nil
}

// commit applies an acknowledged transition on top of the previous local
// state. Seller-scoped items are kept when the ack carries none.
func (t *Tracker) commit(ctx context.Context, prev, ack Order, to Status) Order {
	next := prev.clone()
	next.Status = to
	if ack.Status != "" {
		next.Status = ack.Status
	}
	if ack.PaymentStatus != "" {
		next.PaymentStatus = ack.PaymentStatus
	}
	if !ack.UpdatedAt.IsZero() {
		next.UpdatedAt = ack.UpdatedAt
	}
	t.put(next)

	t.log.Info().
		Str("order_id", next.ID).
		Str("from", string(prev.Status)).
		Str("to", string(next.Status)).
		Msg("order status changed")

	if t.notifier != nil {
		if err := t.notifier.OrderStatusChanged(ctx, next.clone(), prev.Status); err != nil {
			t.log.Error().Err(err).Str("order_id", next.ID).Msg("notify status change")
		}
	}
	return next.clone()
}

// ApplyPayment records an acknowledged payment outcome. It is the only way
// PaymentStatus changes.
func (t *Tracker) ApplyPayment(orderID string, ps PaymentStatus) (Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	o.PaymentStatus = ps
	t.orders[orderID] = o
	return o.clone(), nil
}

// Get returns the locally tracked order.
func (t *Tracker) Get(orderID string) (Order, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return o.clone(), true
}

// Lookup returns the tracked order, fetching it when it is not known yet.
func (t *Tracker) Lookup(ctx context.Context, orderID string) (Order, error) {
	if err := t.sess.Require("view orders"); err != nil {
		return Order{}, err
	}
	return t.current(ctx, orderID)
}

// Refresh re-reads one order from the orders service.
func (t *Tracker) Refresh(ctx context.Context, orderID string) (Order, error) {
	if err := t.sess.Require("view orders"); err != nil {
		return Order{}, err
	}
	return t.fetch(ctx, orderID)
}

// Orders returns every tracked order.
func (t *Tracker) Orders() []Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Order, 0, len(t.orders))
	for _, o := range t.orders {
		out = append(out, o.clone())
	}
	return out
}

func CustomerViewKey(customerID string) string { return "orders:customer:" + customerID }

func SellerViewKey(sellerID string) string { return "orders:seller:" + sellerID }

// Teardown discards in-flight list results for a view.
func (t *Tracker) Teardown(viewKey string) { t.guard.Teardown(viewKey) }

func (t *Tracker) ListForCustomer(ctx context.Context, customerID string) ([]Order, error) {
	if err := t.sess.Require("view orders"); err != nil {
		return nil, err
	}
	if customerID != t.sess.UserID && !t.sess.Is(session.RoleAdmin) {
		return nil, &apperr.ForbiddenError{Action: "view orders", Reason: "orders belong to another customer"}
	}

	ticket := t.guard.Begin(CustomerViewKey(customerID))
	defer ticket.Done()

	orders, err := t.remote.ListForCustomer(ctx, t.sess, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	if !ticket.Current() {
		return nil, apperr.ErrStale
	}
	for i := range orders {
		if orders[i].CustomerID == "" {
			orders[i].CustomerID = customerID
		}
		t.put(orders[i])
	}
	return orders, nil
}

// ListForSeller returns the orders containing sellerID's dishes, restricted
// to that seller's items.
func (t *Tracker) ListForSeller(ctx context.Context, sellerID string) ([]Order, error) {
	if err := t.sess.Require("view sales", session.RoleSeller, session.RoleAdmin); err != nil {
		return nil, err
	}
	if sellerID != t.sess.UserID && !t.sess.Is(session.RoleAdmin) {
		return nil, &apperr.ForbiddenError{Action: "view sales", Reason: "orders belong to another seller"}
	}

	ticket := t.guard.Begin(SellerViewKey(sellerID))
	defer ticket.Done()

	orders, err := t.remote.ListForSeller(ctx, t.sess, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	if !ticket.Current() {
		return nil, apperr.ErrStale
	}

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		scoped := scopeToSeller(o, sellerID)
		if len(scoped.Items) == 0 {
			continue
		}
		t.put(scoped)
		out = append(out, scoped.clone())
	}
	return out, nil
}

// scopeToSeller keeps only sellerID's items. Items without a seller id are
// assumed to be scoped by the server already.
func scopeToSeller(o Order, sellerID string) Order {
	scoped := o.clone()
	tagged := false
	for _, it := range o.Items {
		if it.SellerID != "" {
			tagged = true
			break
		}
	}
	if !tagged {
		for i := range scoped.Items {
			scoped.Items[i].SellerID = sellerID
		}
	} else {
		scoped.Items = o.ItemsFor(sellerID)
	}
	if scoped.SellerSubtotal.IsZero() {
		scoped.SellerSubtotal = scoped.SubtotalFor(sellerID)
	}
	return scoped
}

func (t *Tracker) current(ctx context.Context, orderID string) (Order, error) {
	if o, ok := t.Get(orderID); ok {
		return o, nil
	}
	return t.fetch(ctx, orderID)
}

// fetch reads an order from the service. Sellers read it through their own
// order list so the items are scoped and ownership is known.
func (t *Tracker) fetch(ctx context.Context, orderID string) (Order, error) {
	if t.sess.Is(session.RoleSeller) {
		orders, err := t.ListForSeller(ctx, t.sess.UserID)
		if err != nil {
			return Order{}, err
		}
		for _, o := range orders {
			if o.ID == orderID {
				return o, nil
			}
		}
		return Order{}, &apperr.ForbiddenError{Action: "manage order " + orderID, Reason: "order contains none of your dishes"}
	}

	o, err := t.remote.Get(ctx, t.sess, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	t.put(o)
	return o.clone(), nil
}

func (t *Tracker) put(o Order) {
	t.mu.Lock()
	t.orders[o.ID] = o.clone()
	t.mu.Unlock()
}
