// Package ledger keeps a Postgres record of every payment the payments
// service answered.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/payment"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Receipt struct {
	ID            uuid.UUID           `json:"id" yaml:"id"`
	OrderID       string              `json:"orderId" yaml:"orderId"`
	UserID        string              `json:"userId" yaml:"userId"`
	TransactionID string              `json:"transactionId,omitempty" yaml:"transactionId,omitempty"`
	Amount        decimal.Decimal     `json:"amount" yaml:"amount"`
	Outcome       order.PaymentStatus `json:"outcome" yaml:"outcome"`
	Message       string              `json:"message,omitempty" yaml:"message,omitempty"`
	BalanceAfter  decimal.NullDecimal `json:"balanceAfter" yaml:"balanceAfter"`
	RecordedAt    time.Time           `json:"recordedAt" yaml:"recordedAt"`
}

const (
	insertReceiptSQL = `
		INSERT INTO payment_receipts(id, order_id, user_id, transaction_id, amount, outcome, message, balance_after, recorded_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listReceiptsSQL = `
		SELECT id::text, order_id, user_id, transaction_id, amount, outcome, message, balance_after, recorded_at
		FROM payment_receipts
		WHERE order_id=$1
		ORDER BY recorded_at ASC`
)

type Ledger struct {
	pool  DBPool
	newID func() uuid.UUID
}

var _ payment.Recorder = (*Ledger)(nil)

func New(pool DBPool) *Ledger {
	return &Ledger{pool: pool, newID: uuid.New}
}

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Record stores a settlement as a receipt.
func (l *Ledger) Record(ctx context.Context, s payment.Settlement) error {
	r := Receipt{
		ID:            l.newID(),
		OrderID:       s.OrderID,
		UserID:        s.UserID,
		TransactionID: s.TransactionID,
		Amount:        s.Amount,
		Outcome:       s.Outcome,
		Message:       s.Message,
		RecordedAt:    s.At.UTC(),
	}
	if s.BalanceAfter != nil {
		r.BalanceAfter = decimal.NewNullDecimal(*s.BalanceAfter)
	}
	return l.Insert(ctx, r)
}

func (l *Ledger) Insert(ctx context.Context, r Receipt) error {
	var balanceAfter any
	if r.BalanceAfter.Valid {
		balanceAfter = r.BalanceAfter.Decimal.String()
	}
	_, err := l.pool.Exec(ctx, insertReceiptSQL,
		r.ID.String(), r.OrderID, r.UserID, r.TransactionID, r.Amount.String(),
		string(r.Outcome), r.Message, balanceAfter, r.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert receipt for order %s: %w", r.OrderID, err)
	}
	return nil
}

// ListForOrder returns the receipts of an order, oldest first.
func (l *Ledger) ListForOrder(ctx context.Context, orderID string) ([]Receipt, error) {
	rows, err := l.pool.Query(ctx, listReceiptsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("list receipts for order %s: %w", orderID, err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var (
			r       Receipt
			id      string
			outcome string
		)
		if err := rows.Scan(&id, &r.OrderID, &r.UserID, &r.TransactionID, &r.Amount, &outcome, &r.Message, &r.BalanceAfter, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("receipt id %q: %w", id, err)
		}
		r.Outcome = order.PaymentStatus(outcome)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts for order %s: %w", orderID, err)
	}
	return out, nil
}
