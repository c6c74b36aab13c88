// Package devserver is an in-memory stand-in for the users, dishes, orders,
// payments and balance services, served from one router.
package devserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/middleware"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type Config struct {
	JWTSecret       string
	TokenTTL        time.Duration
	StartingBalance decimal.Decimal
	// MinimumCharge rejects payments for smaller orders. Zero disables it.
	MinimumCharge   decimal.Decimal
	Logger          zerolog.Logger
}

type Server struct {
	cfg    Config
	st     *state
	tokens issuer
	log    zerolog.Logger
	now    func() time.Time
}

func New(cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	s := &Server{cfg: cfg, st: newState(), log: cfg.Logger, now: time.Now}
	s.tokens = issuer{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL, now: func() time.Time { return s.now() }}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(s.log))
	r.Use(middleware.Recover(s.log))
	r.Use(middleware.UserID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "devbackend"})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Get("/{id}/balance", s.userBalance)
		r.Post("/{id}/balance", s.userDebit)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/id/{id}", s.getUser)
			r.With(requireRole(session.RoleAdmin)).Get("/", s.listUsers)
			r.With(requireRole(session.RoleAdmin)).Post("/delete/{id}", s.deleteUser)
		})
	})

	r.Route("/api/dishes", func(r chi.Router) {
		r.Get("/", s.listDishes)
		r.Get("/{id}", s.getDish)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.With(requireRole(session.RoleSeller)).Post("/", s.createDish)
			r.With(requireRole(session.RoleSeller)).Put("/{id}", s.updateDish)
			r.With(requireRole(session.RoleSeller)).Patch("/{id}/availability", s.setAvailability)
			r.With(requireRole(session.RoleSeller, session.RoleAdmin)).Delete("/{id}", s.deleteDish)
		})
	})

	r.Route("/api/sellers/{sellerId}/dishes", func(r chi.Router) {
		r.Get("/", s.sellerDishes)
		r.With(s.requireAuth, requireRole(session.RoleSeller)).Put("/{id}/availability", s.sellerAvailability)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(requireRole(session.RoleCustomer)).Post("/user-order", s.placeOrder)
		r.Get("/{id}", s.getOrder)
		r.Get("/customer/{id}", s.customerOrders)
		r.With(requireRole(session.RoleSeller, session.RoleAdmin)).Get("/seller/{id}", s.sellerOrders)
		r.With(requireRole(session.RoleSeller)).Put("/{id}/status", s.updateStatus)
		r.With(requireRole(session.RoleCustomer)).Post("/{id}/cancel", s.cancelOrder)
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.With(requireRole(session.RoleCustomer)).Post("/process", s.processPayment)
		r.Get("/status/{orderId}", s.paymentStatus)
	})

	r.Route("/api/balance", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.balance)
		r.Get("/check", s.checkBalance)
		r.Post("/update", s.updateBalance)
	})

	return r
}

// SeedUser creates an account directly, bypassing registration.
func (s *Server) SeedUser(username, password string, role session.Role) string {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u := &userRec{
		ID:       s.st.nextID(),
		Username: username,
		Password: password,
		Role:     role,
		Balance:  s.cfg.StartingBalance,
	}
	s.st.users[u.ID] = u
	return idString(u.ID)
}

// SetBalance overrides a user's balance.
func (s *Server) SetBalance(userID string, balance decimal.Decimal) bool {
	id, ok := parseID(userID)
	if !ok {
		return false
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[id]
	if ok {
		u.Balance = balance
	}
	return ok
}

// SeedDish adds an available dish for sellerID.
func (s *Server) SeedDish(sellerID, name string, price decimal.Decimal) string {
	sid, _ := parseID(sellerID)
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d := &dishRec{ID: s.st.nextID(), Name: name, Price: price, Available: true, SellerID: sid}
	s.st.dishes[d.ID] = d
	return idString(d.ID)
}
