package devserver

import (
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

func itemDTO(it itemRec) dto.OrderItem {
	sub := it.subtotal()
	return dto.OrderItem{
		ID:       dto.ID(idString(it.ID)),
		DishID:   dto.ID(idString(it.DishID)),
		DishName: it.DishName,
		Price:    it.Price,
		Quantity: it.Quantity,
		Subtotal: &sub,
		SellerID: dto.ID(idString(it.SellerID)),
	}
}

// customerView must be called with st.mu held.
func (s *Server) customerView(o *orderRec) dto.Order {
	total := o.Total
	out := dto.Order{
		ID:            dto.ID(idString(o.ID)),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   &total,
		CustomerID:    dto.ID(idString(o.CustomerID)),
		Items:         make([]dto.OrderItem, 0, len(o.Items)),
		CreatedAt:     dto.Time{Time: o.CreatedAt},
		UpdatedAt:     dto.Time{Time: o.UpdatedAt},
	}
	if u, ok := s.st.users[o.CustomerID]; ok {
		out.User = &dto.OrderUser{ID: out.CustomerID, Username: u.Username, Email: u.Email}
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, itemDTO(it))
	}
	return out
}

// sellerView only carries sellerID's lines. It must be called with st.mu
// held.
func (s *Server) sellerView(o *orderRec, sellerID int64) dto.Order {
	total := o.Total
	sub := decimal.Zero
	out := dto.Order{
		ID:                 dto.ID(idString(o.ID)),
		Status:             string(o.Status),
		PaymentStatus:      string(o.PaymentStatus),
		CustomerID:         dto.ID(idString(o.CustomerID)),
		SellerItems:        []dto.OrderItem{},
		TotalOrderAmount:   &total,
		IsMultiSellerOrder: o.sellerCount() > 1,
		CreatedAt:          dto.Time{Time: o.CreatedAt},
		UpdatedAt:          dto.Time{Time: o.UpdatedAt},
	}
	if u, ok := s.st.users[o.CustomerID]; ok {
		out.CustomerName = u.Username
	}
	for _, it := range o.Items {
		if it.SellerID != sellerID {
			continue
		}
		sub = sub.Add(it.subtotal())
		out.SellerItems = append(out.SellerItems, itemDTO(it))
	}
	out.SellerSubtotal = &sub
	return out
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req []dto.CreateOrderItem
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req) == 0 {
		writeError(w, r, http.StatusBadRequest, "order has no items")
		return
	}
	p, _ := principalFrom(r.Context())

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	now := s.now().UTC()
	o := &orderRec{
		CustomerID: p.UserID,
		Status:     order.StatusPending,
		Total:      decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, it := range req {
		dishID, ok := parseID(it.DishID.String())
		if !ok || it.Quantity < 1 {
			writeError(w, r, http.StatusBadRequest, "each item needs a dish id and a positive quantity")
			return
		}
		d, ok := s.st.dishes[dishID]
		if !ok {
			writeError(w, r, http.StatusNotFound, "dish "+it.DishID.String()+" not found")
			return
		}
		if !d.Available {
			writeError(w, r, http.StatusBadRequest, "dish "+d.Name+" is not available")
			return
		}
		rec := itemRec{
			DishID:   d.ID,
			DishName: d.Name,
			SellerID: d.SellerID,
			Price:    d.Price,
			Quantity: it.Quantity,
		}
		o.Items = append(o.Items, rec)
		o.Total = o.Total.Add(rec.subtotal())
	}
	o.ID = s.st.nextID()
	for i := range o.Items {
		o.Items[i].ID = s.st.nextID()
	}
	s.st.orders[o.ID] = o
	s.log.Info().Int64("order_id", o.ID).Int64("customer_id", o.CustomerID).Str("total", o.Total.StringFixed(2)).Msg("order placed")
	writeJSON(w, http.StatusOK, s.customerView(o))
}

// visibleOrder returns the order when the caller placed it, sells in it or
// is an admin. It must be called with st.mu held.
func (s *Server) visibleOrder(w http.ResponseWriter, r *http.Request, param string) (*orderRec, bool) {
	id, ok := parseID(chi.URLParam(r, param))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid order id")
		return nil, false
	}
	o, ok := s.st.orders[id]
	if !ok {
		writeError(w, r, http.StatusNotFound, "order not found")
		return nil, false
	}
	p, _ := principalFrom(r.Context())
	if o.CustomerID != p.UserID && !o.hasSeller(p.UserID) && p.Role != session.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "not your order")
		return nil, false
	}
	return o, true
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	o, ok := s.visibleOrder(w, r, "id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.customerView(o))
}

func sortedOrders(in map[int64]*orderRec, keep func(*orderRec) bool) []*orderRec {
	var out []*orderRec
	for _, o := range in {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) customerOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid customer id")
		return
	}
	p, _ := principalFrom(r.Context())
	if p.UserID != id && p.Role != session.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "not your orders")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	list := sortedOrders(s.st.orders, func(o *orderRec) bool { return o.CustomerID == id })
	out := make([]dto.Order, 0, len(list))
	for _, o := range list {
		out = append(out, s.customerView(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sellerOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid seller id")
		return
	}
	p, _ := principalFrom(r.Context())
	if p.UserID != id && p.Role != session.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "not your orders")
		return
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	list := sortedOrders(s.st.orders, func(o *orderRec) bool { return o.hasSeller(id) })
	out := make([]dto.Order, 0, len(list))
	for _, o := range list {
		out = append(out, s.sellerView(o, id))
	}
	writeJSON(w, http.StatusOK, out)
}

// targetStatus reads the status from a JSON body, or from ?status= when the
// body is empty.
func targetStatus(w http.ResponseWriter, r *http.Request) (order.Status, error) {
	var req dto.StatusUpdate
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if req.Status == "" {
		req.Status = r.URL.Query().Get("status")
	}
	return order.ParseStatus(req.Status)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	to, err := targetStatus(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, _ := principalFrom(r.Context())

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	o, ok := s.visibleOrder(w, r, "id")
	if !ok {
		return
	}
	if !o.hasSeller(p.UserID) {
		writeError(w, r, http.StatusForbidden, "order has none of your dishes")
		return
	}
	if !o.Status.CanTransition(to) || to == order.StatusCancelled {
		writeError(w, r, http.StatusConflict, "cannot move order from "+string(o.Status)+" to "+string(to))
		return
	}
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	s.log.Info().Int64("order_id", o.ID).Str("status", string(to)).Msg("order status updated")
	writeJSON(w, http.StatusOK, s.sellerView(o, p.UserID))
}

func (s *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	o, ok := s.visibleOrder(w, r, "id")
	if !ok {
		return
	}
	if o.CustomerID != p.UserID {
		writeError(w, r, http.StatusForbidden, "only the customer may cancel")
		return
	}
	if o.Status != order.StatusPending {
		writeError(w, r, http.StatusConflict, "only pending orders can be cancelled")
		return
	}
	o.Status = order.StatusCancelled
	o.UpdatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, s.customerView(o))
}
