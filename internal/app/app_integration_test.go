//go:build integration

package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/cart"
	"github.com/joue-zero/homemade-dishes/internal/config"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/testutil"
)

// The ledger database starts empty; New must create the receipts table.
func TestLedgerRecordsPaymentsOnFreshDatabase(t *testing.T) {
	ctx := context.Background()
	dsn := testutil.StartEmptyPostgres(t)
	e := newEnv(t)

	custApp := e.newApp(t, func(c *config.Config) { c.LedgerDatabaseURL = dsn })
	require.NotNil(t, custApp.Ledger)
	sellerApp := e.newApp(t)
	cs := login(t, custApp, "amira")
	ss := login(t, sellerApp, "hana")

	d, err := custApp.Dishes.Get(ctx, cs, e.dish)
	require.NoError(t, err)
	c := cart.New()
	require.NoError(t, c.AddItem(d, 2))
	placed, err := custApp.Tracker(cs).Submit(ctx, c)
	require.NoError(t, err)
	_, err = sellerApp.Tracker(ss).Accept(ctx, placed.ID)
	require.NoError(t, err)

	res, err := custApp.Reconciler(custApp.Tracker(cs)).Pay(ctx, placed.ID)
	require.NoError(t, err)
	require.True(t, res.Paid)

	receipts, err := custApp.Ledger.ListForOrder(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, order.PaymentPaid, receipts[0].Outcome)
	assert.Equal(t, e.cust, receipts[0].UserID)
	assert.True(t, decimal.NewFromInt(20).Equal(receipts[0].Amount))
	require.True(t, receipts[0].BalanceAfter.Valid)
	assert.True(t, decimal.NewFromInt(30).Equal(receipts[0].BalanceAfter.Decimal))
}
