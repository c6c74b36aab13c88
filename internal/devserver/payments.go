package devserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/order"
)

// processPayment debits the customer's wallet for an accepted order. A
// short balance is a 200 with success=false, as the payments service does.
func (s *Server) processPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	orderID, ok := parseID(req.OrderID.String())
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return
	}
	p, _ := principalFrom(r.Context())

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	o, ok := s.st.orders[orderID]
	if !ok {
		writeError(w, r, http.StatusNotFound, "order not found")
		return
	}
	if o.CustomerID != p.UserID {
		writeError(w, r, http.StatusForbidden, "not your order")
		return
	}
	if o.Status != order.StatusAccepted || o.PaymentStatus == order.PaymentPaid {
		writeError(w, r, http.StatusBadRequest, "order is not awaiting payment")
		return
	}
	u, ok := s.st.users[p.UserID]
	if !ok {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}

	now := s.now().UTC()
	resp := dto.PaymentResponse{OrderID: req.OrderID, Timestamp: dto.Time{Time: now}}
	o.UpdatedAt = now
	if floor := s.cfg.MinimumCharge; floor.IsPositive() && o.Total.LessThan(floor) {
		o.Status = order.StatusRejected
		o.PaymentStatus = order.PaymentFailed
		resp.Message = "Order amount is below minimum charge of " + floor.StringFixed(2)
		s.log.Warn().Int64("order_id", o.ID).Str("total", o.Total.StringFixed(2)).Msg("order below minimum charge")
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if u.Balance.LessThan(o.Total) {
		o.PaymentStatus = order.PaymentFailed
		resp.Message = "Insufficient balance"
		s.log.Warn().Int64("order_id", o.ID).Str("balance", u.Balance.StringFixed(2)).Msg("payment refused")
		writeJSON(w, http.StatusOK, resp)
		return
	}
	u.Balance = u.Balance.Sub(o.Total)
	o.PaymentStatus = order.PaymentPaid
	resp.Success = true
	resp.Message = "Payment processed successfully"
	resp.TransactionID = uuid.NewString()
	s.log.Info().Int64("order_id", o.ID).Str("transaction_id", resp.TransactionID).Msg("payment processed")
	writeJSON(w, http.StatusOK, resp)
}

// paymentStatus answers with a bare JSON string.
func (s *Server) paymentStatus(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	o, ok := s.visibleOrder(w, r, "orderId")
	if !ok {
		return
	}
	ps := string(o.PaymentStatus)
	if ps == "" {
		ps = "NONE"
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	s.st.mu.Lock()
	u, ok := s.st.users[p.UserID]
	var out dto.Balance
	if ok {
		out = dto.Balance{UserID: dto.ID(idString(u.ID)), Balance: u.Balance}
	}
	s.st.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func queryAmount(r *http.Request) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	return amount, err == nil && amount.IsPositive()
}

// checkBalance answers with a bare boolean.
func (s *Server) checkBalance(w http.ResponseWriter, r *http.Request) {
	amount, ok := queryAmount(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	p, _ := principalFrom(r.Context())
	s.st.mu.Lock()
	u, ok := s.st.users[p.UserID]
	sufficient := ok && !u.Balance.LessThan(amount)
	s.st.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, sufficient)
}

func (s *Server) updateBalance(w http.ResponseWriter, r *http.Request) {
	amount, ok := queryAmount(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	p, _ := principalFrom(r.Context())
	bal, status, msg := s.debit(p.UserID, amount)
	if status != http.StatusOK {
		writeError(w, r, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, dto.Balance{UserID: dto.ID(idString(p.UserID)), Balance: bal})
}
