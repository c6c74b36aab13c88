package ledger

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/payment"
)

var fixedID = uuid.MustParse("8f14e45f-ceea-467a-9af0-6f8a1b1e7c3d")

func newLedger(t *testing.T) (*Ledger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	l := New(mock)
	l.newID = func() uuid.UUID { return fixedID }
	return l, mock
}

func TestRecordPaidSettlement(t *testing.T) {
	l, mock := newLedger(t)
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	after := decimal.NewFromInt(30)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_receipts")).
		WithArgs(fixedID.String(), "9", "3", "tx-1", "20", "PAID", "Payment processed", "30", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := l.Record(context.Background(), payment.Settlement{
		OrderID:       "9",
		UserID:        "3",
		Amount:        decimal.NewFromInt(20),
		Outcome:       order.PaymentPaid,
		TransactionID: "tx-1",
		Message:       "Payment processed",
		BalanceAfter:  &after,
		At:            at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailedSettlementWithoutBalance(t *testing.T) {
	l, mock := newLedger(t)
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_receipts")).
		WithArgs(fixedID.String(), "9", "3", "", "20", "FAILED", "Insufficient balance", nil, at).
		WillReturnError(errors.New("connection reset"))

	err := l.Record(context.Background(), payment.Settlement{
		OrderID: "9",
		UserID:  "3",
		Amount:  decimal.NewFromInt(20),
		Outcome: order.PaymentFailed,
		Message: "Insufficient balance",
		At:      at,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert receipt for order 9")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForOrder(t *testing.T) {
	l, mock := newLedger(t)
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "order_id", "user_id", "transaction_id", "amount", "outcome", "message", "balance_after", "recorded_at"}).
		AddRow(fixedID.String(), "9", "3", "", "20.00", "FAILED", "Insufficient balance", nil, at).
		AddRow(uuid.NewString(), "9", "3", "tx-2", "20.00", "PAID", "ok", "30.00", at.Add(time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("FROM payment_receipts")).
		WithArgs("9").
		WillReturnRows(rows)

	got, err := l.ListForOrder(context.Background(), "9")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, fixedID, got[0].ID)
	assert.Equal(t, order.PaymentFailed, got[0].Outcome)
	assert.False(t, got[0].BalanceAfter.Valid)

	assert.Equal(t, order.PaymentPaid, got[1].Outcome)
	assert.True(t, got[1].BalanceAfter.Valid)
	assert.True(t, decimal.NewFromInt(30).Equal(got[1].BalanceAfter.Decimal))
	assert.True(t, decimal.NewFromInt(20).Equal(got[1].Amount))
	require.NoError(t, mock.ExpectationsWereMet())
}
