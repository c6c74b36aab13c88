package devserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/session"
	"github.com/joue-zero/homemade-dishes/internal/users"
)

func userDTO(u *userRec) dto.User {
	bal := u.Balance
	return dto.User{
		ID:       dto.ID(idString(u.ID)),
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
		Balance:  &bal,
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req dto.Register
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	reg := users.Registration{
		Credentials: users.Credentials{Username: strings.TrimSpace(req.Username), Password: req.Password},
		Email:       req.Email,
		Role:        session.RoleCustomer,
	}
	if req.Role != "" {
		role, err := session.ParseRole(req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		reg.Role = role
	}
	if err := reg.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.userByName(reg.Username) != nil {
		writeError(w, r, http.StatusConflict, "username already taken")
		return
	}
	u := &userRec{
		ID:       s.st.nextID(),
		Username: reg.Username,
		Password: reg.Password,
		Email:    reg.Email,
		Role:     reg.Role,
		Balance:  s.cfg.StartingBalance,
	}
	s.st.users[u.ID] = u
	s.log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	writeJSON(w, http.StatusOK, userDTO(u))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.Login
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	s.st.mu.Lock()
	u := s.st.userByName(strings.TrimSpace(req.Username))
	if u == nil || u.Password != req.Password {
		s.st.mu.Unlock()
		writeError(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}
	out := userDTO(u)
	token, err := s.tokens.issue(u)
	s.st.mu.Unlock()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not issue token")
		return
	}
	out.Token = token
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	p, _ := principalFrom(r.Context())
	if p.UserID != id && p.Role != session.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "not your account")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, userDTO(u))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	out := make([]dto.User, 0, len(s.st.users))
	ids := make([]int64, 0, len(s.st.users))
	for id := range s.st.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out = append(out, userDTO(s.st.users[id]))
	}
	s.st.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.users[id]; !ok {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	delete(s.st.users, id)
	w.WriteHeader(http.StatusOK)
}

// userBalance answers with a bare number.
func (s *Server) userBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	s.st.mu.Lock()
	u, ok := s.st.users[id]
	var bal decimal.Decimal
	if ok {
		bal = u.Balance
	}
	s.st.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, rawNumber(bal))
}

func (s *Server) userDebit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	var req dto.Debit
	if err := decode(w, r, &req); err != nil || !req.Amount.IsPositive() {
		writeError(w, r, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	bal, status, msg := s.debit(id, req.Amount)
	if status != http.StatusOK {
		writeError(w, r, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, rawNumber(bal))
}

// debit subtracts amount unless that would overdraw the account.
func (s *Server) debit(userID int64, amount decimal.Decimal) (decimal.Decimal, int, string) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[userID]
	if !ok {
		return decimal.Zero, http.StatusNotFound, "user not found"
	}
	if u.Balance.LessThan(amount) {
		return u.Balance, http.StatusBadRequest, "Insufficient balance"
	}
	u.Balance = u.Balance.Sub(amount)
	return u.Balance, http.StatusOK, ""
}

type rawNumber decimal.Decimal

func (n rawNumber) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).StringFixed(2)), nil
}
