package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

var (
	customer = session.Session{UserID: "3", Role: session.RoleCustomer, Token: "t"}
	seller   = session.Session{UserID: "5", Role: session.RoleSeller, Token: "t"}
	t0       = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
)

func item(dishID, sellerID string, price int64, qty int) order.Item {
	return order.Item{DishID: dishID, SellerID: sellerID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func TestCustomerHistoryNewestFirst(t *testing.T) {
	orders := []order.Order{
		{ID: "1", CustomerID: "3", CreatedAt: t0},
		{ID: "2", CustomerID: "4", CreatedAt: t0.Add(time.Hour)},
		{ID: "3", CustomerID: "3", CreatedAt: t0.Add(2 * time.Hour)},
		{ID: "4", CustomerID: "3", CreatedAt: t0},
	}

	got := CustomerHistory(orders, customer)
	ids := make([]string, 0, len(got))
	for _, o := range got {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"3", "4", "1"}, ids)
}

func TestSalesHistoryOnlyPaidAndOwnItems(t *testing.T) {
	mixed := order.Order{
		ID:            "10",
		CustomerID:    "3",
		PaymentStatus: order.PaymentPaid,
		Items:         []order.Item{item("1", "5", 10, 2), item("2", "6", 7, 1)},
		TotalAmount:   decimal.NewFromInt(27),
		CreatedAt:     t0,
	}
	unpaid := order.Order{
		ID:          "11",
		Items:       []order.Item{item("1", "5", 10, 1)},
		TotalAmount: decimal.NewFromInt(10),
	}
	failed := unpaid
	failed.ID = "12"
	failed.PaymentStatus = order.PaymentFailed
	foreign := order.Order{
		ID:            "13",
		PaymentStatus: order.PaymentPaid,
		Items:         []order.Item{item("2", "6", 7, 1)},
	}

	rows := SalesHistory([]order.Order{mixed, unpaid, failed, foreign}, seller)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "10", row.OrderID)
	assert.True(t, decimal.NewFromInt(20).Equal(row.SellerSubtotal))
	assert.True(t, decimal.NewFromInt(27).Equal(row.OrderTotal))
	assert.True(t, row.MultiSeller)
	require.Len(t, row.Items, 1)
	assert.Equal(t, "1", row.Items[0].DishID)

	assert.True(t, decimal.NewFromInt(20).Equal(Revenue(rows)))
}

type fakeSource struct {
	sess             session.Session
	listCustomerFn func(ctx context.Context, id string) ([]order.Order, error)
	listSellerFn   func(ctx context.Context, id string) ([]order.Order, error)
}

func (f *fakeSource) Session() session.Session { return f.sess }

func (f *fakeSource) ListForCustomer(ctx context.Context, id string) ([]order.Order, error) {
	return f.listCustomerFn(ctx, id)
}

func (f *fakeSource) ListForSeller(ctx context.Context, id string) ([]order.Order, error) {
	return f.listSellerFn(ctx, id)
}

type balanceFunc func(ctx context.Context) (decimal.Decimal, error)

func (f balanceFunc) Balance(ctx context.Context) (decimal.Decimal, error) { return f(ctx) }

func TestLoaderCustomerDashboard(t *testing.T) {
	src := &fakeSource{
		sess: customer,
		listCustomerFn: func(_ context.Context, id string) ([]order.Order, error) {
			return []order.Order{
				{ID: "1", CustomerID: id, CreatedAt: t0},
				{ID: "2", CustomerID: id, CreatedAt: t0.Add(time.Minute)},
			}, nil
		},
	}
	l := NewLoader(src, balanceFunc(func(context.Context) (decimal.Decimal, error) {
		return decimal.NewFromInt(50), nil
	}), nil)

	d, err := l.Customer(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Orders, 2)
	assert.Equal(t, "2", d.Orders[0].ID)
	assert.True(t, decimal.NewFromInt(50).Equal(d.Balance))
}

func TestLoaderCustomerDashboardError(t *testing.T) {
	boom := &apperr.RemoteError{Service: "balance", Status: 500}
	src := &fakeSource{
		sess: customer,
		listCustomerFn: func(ctx context.Context, _ string) ([]order.Order, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	l := NewLoader(src, balanceFunc(func(context.Context) (decimal.Decimal, error) {
		return decimal.Zero, boom
	}), nil)

	_, err := l.Customer(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLoaderDropsTornDownView(t *testing.T) {
	var l *Loader
	src := &fakeSource{
		sess: customer,
		listCustomerFn: func(context.Context, string) ([]order.Order, error) {
			l.Teardown(CustomerDashboardKey(customer.UserID))
			return nil, nil
		},
	}
	l = NewLoader(src, balanceFunc(func(context.Context) (decimal.Decimal, error) {
		return decimal.Zero, nil
	}), nil)

	_, err := l.Customer(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrStale))
}

func TestLoaderSales(t *testing.T) {
	src := &fakeSource{
		sess: seller,
		listSellerFn: func(_ context.Context, id string) ([]order.Order, error) {
			return []order.Order{
				{ID: "1", PaymentStatus: order.PaymentPaid, Items: []order.Item{item("1", id, 10, 2)}},
				{ID: "2", Items: []order.Item{item("1", id, 10, 1)}},
			}, nil
		},
	}
	l := NewLoader(src, nil, nil)

	d, err := l.Sales(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Rows, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(d.Revenue))

	l = NewLoader(&fakeSource{sess: customer}, nil, nil)
	_, err = l.Sales(context.Background())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
