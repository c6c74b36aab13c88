package devserver

import (
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type userRec struct {
	ID       int64
	Username string
	Password string
	Email    string
	Role     session.Role
	Balance  decimal.Decimal
}

type dishRec struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Available   bool
	SellerID    int64
}

type itemRec struct {
	ID       int64
	DishID   int64
	DishName string
	SellerID int64
	Price    decimal.Decimal
	Quantity int
}

func (i itemRec) subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type orderRec struct {
	ID            int64
	CustomerID    int64
	Items         []itemRec
	Status        order.Status
	PaymentStatus order.PaymentStatus
	Total         decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o *orderRec) hasSeller(sellerID int64) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

func (o *orderRec) sellerCount() int {
	seen := make(map[int64]bool)
	for _, it := range o.Items {
		seen[it.SellerID] = true
	}
	return len(seen)
}

// state is the in-memory data of all five services.
type state struct {
	mu     sync.Mutex
	seq    int64
	users  map[int64]*userRec
	dishes map[int64]*dishRec
	orders map[int64]*orderRec
}

func newState() *state {
	return &state{
		users:  make(map[int64]*userRec),
		dishes: make(map[int64]*dishRec),
		orders: make(map[int64]*orderRec),
	}
}

// nextID must be called with mu held.
func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) userByName(username string) *userRec {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func parseID(v string) (int64, bool) {
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id > 0
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }
