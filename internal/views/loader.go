package views

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/staleguard"
)

type OrderSource interface {
	Session() session.Session
	ListForCustomer(ctx context.Context, customerID string) ([]order.Order, error)
	ListForSeller(ctx context.Context, sellerID string) ([]order.Order, error)
}

type BalanceReader interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
}

type CustomerDashboard struct {
	Orders  []order.Order   `json:"orders" yaml:"orders"`
	Balance decimal.Decimal `json:"balance" yaml:"balance"`
}

type SalesDashboard struct {
	Rows    []SalesRow      `json:"rows" yaml:"rows"`
	Revenue decimal.Decimal `json:"revenue" yaml:"revenue"`
}

// Loader fetches whole screens. Results of a view torn down while loading are
// dropped with apperr.ErrStale.
type Loader struct {
	orders  OrderSource
	balance BalanceReader
	guard   *staleguard.Guard
}

func NewLoader(orders OrderSource, balance BalanceReader, guard *staleguard.Guard) *Loader {
	if guard == nil {
		guard = staleguard.New()
	}
	return &Loader{orders: orders, balance: balance, guard: guard}
}

func CustomerDashboardKey(userID string) string { return "dashboard:customer:" + userID }

func SalesDashboardKey(sellerID string) string { return "dashboard:sales:" + sellerID }

// Customer loads order history and balance concurrently.
func (l *Loader) Customer(ctx context.Context) (CustomerDashboard, error) {
	s := l.orders.Session()
	if err := s.Require("view orders"); err != nil {
		return CustomerDashboard{}, err
	}
	ticket := l.guard.Begin(CustomerDashboardKey(s.UserID))
	defer ticket.Done()

	var (
		orders []order.Order
		bal    decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = l.orders.ListForCustomer(gctx, s.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		bal, err = l.balance.Balance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return CustomerDashboard{}, err
	}
	if !ticket.Current() {
		return CustomerDashboard{}, apperr.ErrStale
	}
	return CustomerDashboard{Orders: CustomerHistory(orders, s), Balance: bal}, nil
}

func (l *Loader) Sales(ctx context.Context) (SalesDashboard, error) {
	s := l.orders.Session()
	if err := s.Require("view sales", session.RoleSeller); err != nil {
		return SalesDashboard{}, err
	}
	ticket := l.guard.Begin(SalesDashboardKey(s.UserID))
	defer ticket.Done()

	orders, err := l.orders.ListForSeller(ctx, s.UserID)
	if err != nil {
		return SalesDashboard{}, err
	}
	if !ticket.Current() {
		return SalesDashboard{}, apperr.ErrStale
	}
	rows := SalesHistory(orders, s)
	return SalesDashboard{Rows: rows, Revenue: Revenue(rows)}, nil
}

// Teardown drops whatever is still loading for key.
func (l *Loader) Teardown(key string) { l.guard.Teardown(key) }
