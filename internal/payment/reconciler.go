// Package payment pays accepted orders from the customer's wallet balance and
// keeps the local order state in line with what the payments service reports.
package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

// Outcome is a payments service answer that carried a body.
type Outcome struct {
	OrderID       string
	Success       bool
	Message       string
	TransactionID string
	At            time.Time
}

type Gateway interface {
	Process(ctx context.Context, s session.Session, orderID string) (Outcome, error)
	Status(ctx context.Context, s session.Session, orderID string) (order.PaymentStatus, error)
}

type BalanceSource interface {
	Balance(ctx context.Context, s session.Session) (decimal.Decimal, error)
}

// Orders is the slice of the order tracker the reconciler needs.
type Orders interface {
	Session() session.Session
	Lookup(ctx context.Context, orderID string) (order.Order, error)
	Get(orderID string) (order.Order, bool)
	ApplyPayment(orderID string, ps order.PaymentStatus) (order.Order, error)
}

// Settlement describes a payment the service answered, paid or refused.
type Settlement struct {
	OrderID       string
	UserID        string
	Amount        decimal.Decimal
	Outcome       order.PaymentStatus
	TransactionID string
	Message       string
	// BalanceAfter is nil when the balance could not be re-read.
	BalanceAfter  *decimal.Decimal
	At            time.Time
}

// Recorder keeps settlements, e.g. in a receipt ledger.
type Recorder interface {
	Record(ctx context.Context, s Settlement) error
}

type Notifier interface {
	PaymentSettled(ctx context.Context, s Settlement) error
}

type Config struct {
	Recorder Recorder
	Notifier Notifier
	Logger   zerolog.Logger
}

type Result struct {
	Order         order.Order
	Paid          bool
	Balance       decimal.Decimal
	// BalanceStale is set when the post-payment balance could not be read.
	// Balance then holds the last value seen before paying.
	BalanceStale  bool
	TransactionID string
	Message       string
}

type Reconciler struct {
	orders   Orders
	balance  BalanceSource
	gateway  Gateway
	recorder Recorder
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	cached   *decimal.Decimal
	inflight map[string]bool
}

func NewReconciler(orders Orders, balance BalanceSource, gateway Gateway, cfg Config) *Reconciler {
	return &Reconciler{
		orders:   orders,
		balance:  balance,
		gateway:  gateway,
		recorder: cfg.Recorder,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// Pay settles an accepted order. The balance check is only a shortcut: the
// payments service decides, and its post-payment balance is what we report.
func (r *Reconciler) Pay(ctx context.Context, orderID string) (Result, error) {
	s := r.orders.Session()
	if err := s.Require("pay orders", session.RoleCustomer); err != nil {
		return Result{}, err
	}
	if !r.begin(orderID) {
		return Result{}, apperr.Invalid("orderId", "payment for order %s is already in progress", orderID)
	}
	defer r.end(orderID)

	o, err := r.orders.Lookup(ctx, orderID)
	if err != nil {
		return Result{}, err
	}
	if o.CustomerID != "" && o.CustomerID != s.UserID {
		return Result{}, &apperr.ForbiddenError{Action: "pay orders", Reason: "order belongs to another customer"}
	}
	if o.Status != order.StatusAccepted || o.PaymentStatus == order.PaymentPaid {
		return Result{}, &apperr.NotPayableError{
			OrderID:       o.ID,
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
		}
	}

	before, err := r.Balance(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read balance: %w", err)
	}
	if before.LessThan(o.TotalAmount) {
		return Result{}, &apperr.InsufficientBalanceError{Balance: before, Required: o.TotalAmount}
	}

	out, err := r.gateway.Process(ctx, s, orderID)
	if err != nil {
		r.log.Error().Err(err).Str("order_id", orderID).Msg("payment request failed")
		return Result{}, fmt.Errorf("pay order %s: %w", orderID, err)
	}

	st := Settlement{
		OrderID:       orderID,
		UserID:        s.UserID,
		Amount:        o.TotalAmount,
		TransactionID: out.TransactionID,
		Message:       out.Message,
		At:            out.At,
	}
	if st.At.IsZero() {
		st.At = r.now().UTC()
	}

	if !out.Success {
		updated, aerr := r.orders.ApplyPayment(orderID, order.PaymentFailed)
		if aerr != nil {
			r.log.Error().Err(aerr).Str("order_id", orderID).Msg("record failed payment")
		}
		st.Outcome = order.PaymentFailed
		r.settled(ctx, st)
		r.log.Warn().Str("order_id", orderID).Str("message", out.Message).Msg("payment refused")
		return Result{Order: updated, Message: out.Message}, &apperr.PaymentFailedError{OrderID: orderID, Message: out.Message}
	}

	updated, err := r.orders.ApplyPayment(orderID, order.PaymentPaid)
	if err != nil {
		return Result{}, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	res := Result{
		Order:         updated,
		Paid:          true,
		TransactionID: out.TransactionID,
		Message:       out.Message,
	}

	after, err := r.Balance(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("order_id", orderID).Msg("payment succeeded but balance refresh failed")
		res.Balance = before
		res.BalanceStale = true
	} else {
		res.Balance = after
		st.BalanceAfter = &after
	}

	st.Outcome = order.PaymentPaid
	r.settled(ctx, st)
	r.log.Info().
		Str("order_id", orderID).
		Str("amount", o.TotalAmount.StringFixed(2)).
		Str("transaction_id", out.TransactionID).
		Msg("order paid")
	return res, nil
}

// Balance reads the authoritative balance and caches it for display.
func (r *Reconciler) Balance(ctx context.Context) (decimal.Decimal, error) {
	s := r.orders.Session()
	if err := s.Require("view balance"); err != nil {
		return decimal.Zero, err
	}
	bal, err := r.balance.Balance(ctx, s)
	if err != nil {
		return decimal.Zero, err
	}
	r.mu.Lock()
	r.cached = &bal
	r.mu.Unlock()
	return bal, nil
}

// CachedBalance returns the last balance read, if any.
func (r *Reconciler) CachedBalance() (decimal.Decimal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached == nil {
		return decimal.Zero, false
	}
	return *r.cached, true
}

// PaymentStatus asks the payments service and brings a tracked order in line
// with a settled answer.
func (r *Reconciler) PaymentStatus(ctx context.Context, orderID string) (order.PaymentStatus, error) {
	s := r.orders.Session()
	if err := s.Require("view payments"); err != nil {
		return "", err
	}
	ps, err := r.gateway.Status(ctx, s, orderID)
	if err != nil {
		return "", fmt.Errorf("payment status of order %s: %w", orderID, err)
	}
	if ps != order.PaymentPaid && ps != order.PaymentFailed {
		return ps, nil
	}
	if o, ok := r.orders.Get(orderID); ok && o.PaymentStatus != ps {
		if _, err := r.orders.ApplyPayment(orderID, ps); err != nil {
			return ps, err
		}
		r.log.Info().Str("order_id", orderID).Str("payment_status", string(ps)).Msg("payment status reconciled")
	}
	return ps, nil
}

func (r *Reconciler) settled(ctx context.Context, st Settlement) {
	if r.recorder != nil {
		if err := r.recorder.Record(ctx, st); err != nil {
			r.log.Error().Err(err).Str("order_id", st.OrderID).Msg("record payment receipt")
		}
	}
	if r.notifier != nil {
		if err := r.notifier.PaymentSettled(ctx, st); err != nil {
			r.log.Error().Err(err).Str("order_id", st.OrderID).Msg("notify payment settled")
		}
	}
}

func (r *Reconciler) begin(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[orderID] {
		return false
	}
	r.inflight[orderID] = true
	return true
}

func (r *Reconciler) end(orderID string) {
	r.mu.Lock()
	delete(r.inflight, orderID)
	r.mu.Unlock()
}
