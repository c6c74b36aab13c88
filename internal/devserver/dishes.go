package devserver

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joue-zero/homemade-dishes/internal/dish"
	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

// dishDTO must be called with st.mu held.
func (s *Server) dishDTO(d *dishRec) dto.Dish {
	available := d.Available
	out := dto.Dish{
		ID:          dto.ID(idString(d.ID)),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Available:   &available,
		SellerID:    dto.ID(idString(d.SellerID)),
	}
	if u, ok := s.st.users[d.SellerID]; ok {
		out.Company = &dto.Company{ID: out.SellerID, Name: u.Username, Email: u.Email}
	}
	return out
}

// dishList must be called with st.mu held.
func (s *Server) dishList(keep func(*dishRec) bool) []dto.Dish {
	ids := make([]int64, 0, len(s.st.dishes))
	for id, d := range s.st.dishes {
		if keep(d) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]dto.Dish, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.dishDTO(s.st.dishes[id]))
	}
	return out
}

func (s *Server) listDishes(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	out := s.dishList(func(*dishRec) bool { return true })
	s.st.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sellerDishes(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := parseID(chi.URLParam(r, "sellerId"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid seller id")
		return
	}
	s.st.mu.Lock()
	out := s.dishList(func(d *dishRec) bool { return d.SellerID == sellerID })
	s.st.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDish(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid dish id")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d, ok := s.st.dishes[id]
	if !ok {
		writeError(w, r, http.StatusNotFound, "dish not found")
		return
	}
	writeJSON(w, http.StatusOK, s.dishDTO(d))
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (dish.Draft, bool) {
	var req dto.Dish
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return dish.Draft{}, false
	}
	d := req.ToDomain()
	draft := dish.Draft{
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Available:   d.Available,
	}
	if err := draft.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return dish.Draft{}, false
	}
	return draft, true
}

func (s *Server) createDish(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	p, _ := principalFrom(r.Context())

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d := &dishRec{
		ID:          s.st.nextID(),
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Category:    draft.Category,
		ImageURL:    draft.ImageURL,
		Available:   draft.Available,
		SellerID:    p.UserID,
	}
	s.st.dishes[d.ID] = d
	writeJSON(w, http.StatusCreated, s.dishDTO(d))
}

// ownDish looks up a dish the caller may change. It must be called with
// st.mu held and writes the error response itself.
func (s *Server) ownDish(w http.ResponseWriter, r *http.Request) (*dishRec, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid dish id")
		return nil, false
	}
	d, ok := s.st.dishes[id]
	if !ok {
		writeError(w, r, http.StatusNotFound, "dish not found")
		return nil, false
	}
	p, _ := principalFrom(r.Context())
	if d.SellerID != p.UserID && p.Role != session.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "dish belongs to another seller")
		return nil, false
	}
	return d, true
}

func (s *Server) updateDish(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d, ok := s.ownDish(w, r)
	if !ok {
		return
	}
	// Orders keep the price they were placed at.
	d.Name = draft.Name
	d.Description = draft.Description
	d.Price = draft.Price
	d.Category = draft.Category
	d.ImageURL = draft.ImageURL
	d.Available = draft.Available
	writeJSON(w, http.StatusOK, s.dishDTO(d))
}

func (s *Server) setAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.Availability
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d, ok := s.ownDish(w, r)
	if !ok {
		return
	}
	d.Available = req.Available
	writeJSON(w, http.StatusOK, s.dishDTO(d))
}

// sellerAvailability is the seller-scoped toggle, ?available=true|false.
func (s *Server) sellerAvailability(w http.ResponseWriter, r *http.Request) {
	available, err := strconv.ParseBool(r.URL.Query().Get("available"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "available must be true or false")
		return
	}
	p, _ := principalFrom(r.Context())
	if sellerID, ok := parseID(chi.URLParam(r, "sellerId")); !ok || sellerID != p.UserID {
		writeError(w, r, http.StatusForbidden, "not your menu")
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d, ok := s.ownDish(w, r)
	if !ok {
		return
	}
	d.Available = available
	writeJSON(w, http.StatusOK, s.dishDTO(d))
}

func (s *Server) deleteDish(w http.ResponseWriter, r *http.Request) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	d, ok := s.ownDish(w, r)
	if !ok {
		return
	}
	delete(s.st.dishes, d.ID)
	w.WriteHeader(http.StatusNoContent)
}
