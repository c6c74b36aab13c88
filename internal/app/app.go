// Package app wires configuration into the clients, stores and domain
// services used by the command-line front end.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/joue-zero/homemade-dishes/internal/cart"
	"github.com/joue-zero/homemade-dishes/internal/clients"
	"github.com/joue-zero/homemade-dishes/internal/config"
	"github.com/joue-zero/homemade-dishes/internal/db"
	"github.com/joue-zero/homemade-dishes/internal/events"
	"github.com/joue-zero/homemade-dishes/internal/ledger"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/payment"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/staleguard"
	"github.com/joue-zero/homemade-dishes/internal/views"
)

type App struct {
	Config   config.Config
	Log      zerolog.Logger
	Sessions *session.Manager

	Users    *clients.UserClient
	Dishes   *clients.DishClient
	Orders   *clients.OrderClient
	Payments *clients.PaymentClient
	Balance  *clients.BalanceClient
	Probes   []clients.HealthProbe
	// Ledger is nil unless LEDGER_DATABASE_URL is set.
	Ledger *ledger.Ledger

	guard     *staleguard.Guard
	recorder  payment.Recorder
	publisher *events.Publisher
	closers   []func() error
}

// New builds the application. Optional integrations (ledger, events) are
// only connected when configured.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: logger, guard: staleguard.New()}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Sessions = session.NewManager(store, logger)

	// Shared HTTP client; per-attempt deadlines come from Options.Timeout
	sharedHTTP := &http.Client{}
	opts := clients.Options{
		Timeout:      cfg.RequestTimeout,
		ReadRetries:  cfg.ReadRetries,
		RetryBackoff: cfg.RetryBackoff,
		Unauthorized: a.Sessions.Invalidate,
		Logger:       logger,
	}
	if cfg.RateLimit > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}

	// Upstream clients
	usersBase := clients.NewClient("users", cfg.UsersURL, sharedHTTP, opts)
	dishesBase := clients.NewClient("dishes", cfg.DishesURL, sharedHTTP, opts)
	ordersBase := clients.NewClient("orders", cfg.OrdersURL, sharedHTTP, opts, cfg.OrdersFallbackURLs...)
	paymentsBase := clients.NewClient("payments", cfg.PaymentsURL, sharedHTTP, opts)
	balanceBase := clients.NewClient("balance", cfg.BalanceURL, sharedHTTP, opts)

	// Typed clients
	a.Users = clients.NewUserClient(usersBase)
	a.Dishes = clients.NewDishClient(dishesBase)
	a.Orders = clients.NewOrderClient(ordersBase)
	a.Payments = clients.NewPaymentClient(paymentsBase)
	a.Balance = clients.NewBalanceClient(balanceBase, a.Users)

	// Health probes hit a cheap route of each service
	a.Probes = []clients.HealthProbe{
		{Name: "users", Client: usersBase, Path: "/api/users"},
		{Name: "dishes", Client: dishesBase, Path: "/api/dishes"},
		{Name: "orders", Client: ordersBase, Path: "/api/orders/customer/0"},
		{Name: "payments", Client: paymentsBase, Path: "/api/payments/status/0"},
		{Name: "balance", Client: balanceBase, Path: "/api/balance"},
	}

	if cfg.LedgerDatabaseURL != "" {
		if err := db.RunMigrations(ctx, db.DriverPostgres, cfg.LedgerDatabaseURL, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate ledger: %w", err)
		}
		pool, err := ledger.NewPool(ctx, cfg.LedgerDatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect ledger: %w", err)
		}
		a.Ledger = ledger.New(pool)
		a.recorder = a.Ledger
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
	}

	if cfg.AMQPURL != "" {
		conn, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		pub, err := events.NewPublisher(conn, logger)
		if err != nil {
			_ = conn.Close()
			a.Close()
			return nil, err
		}
		a.publisher = pub
		a.closers = append(a.closers, pub.Close, conn.Close)
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (session.Store, error) {
	cfg := a.Config
	switch cfg.SessionStore {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisStore(rdb, "homemade:session:", cfg.SessionTTL), nil
	case db.DriverSQLite, db.DriverPostgres:
		if err := db.RunMigrations(ctx, cfg.SessionStore, cfg.SessionDSN, a.Log); err != nil {
			return nil, err
		}
		conn, err := db.Open(ctx, cfg.SessionStore, cfg.SessionDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		return session.NewSQLStore(conn), nil
	}
	return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Session loads the signed-in session.
func (a *App) Session(ctx context.Context) (session.Session, error) {
	return a.Sessions.Load(ctx)
}

func (a *App) Cart(ctx context.Context) (*cart.Aggregator, error) {
	return cart.Load(ctx, a.Sessions.Store())
}

func (a *App) SaveCart(ctx context.Context, c *cart.Aggregator) error {
	return cart.Save(ctx, a.Sessions.Store(), c)
}

func (a *App) Tracker(s session.Session) *order.Tracker {
	policy := order.CompleteAnyPayment
	if a.Config.CompletionRequiresPayment {
		policy = order.CompleteRequiresPaid
	}
	cfg := order.TrackerConfig{Policy: policy, Guard: a.guard, Logger: a.Log}
	if a.publisher != nil {
		cfg.Notifier = a.publisher
	}
	return order.NewTracker(a.Orders, s, cfg)
}

func (a *App) Reconciler(t *order.Tracker) *payment.Reconciler {
	cfg := payment.Config{Recorder: a.recorder, Logger: a.Log}
	if a.publisher != nil {
		cfg.Notifier = a.publisher
	}
	return payment.NewReconciler(t, a.Balance, a.Payments, cfg)
}

func (a *App) Loader(t *order.Tracker, r *payment.Reconciler) *views.Loader {
	return views.NewLoader(t, r, a.guard)
}
