package clients

import (
	"context"
	"net/http"

	"github.com/joue-zero/homemade-dishes/internal/dish"
	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

type DishClient struct{ c *Client }

func NewDishClient(c *Client) *DishClient { return &DishClient{c: c} }

// List returns the catalog. The session is optional.
func (dc *DishClient) List(ctx context.Context, s session.Session) ([]dish.Dish, error) {
	var out []dto.Dish
	if err := dc.c.DoJSON(ctx, Request{Method: http.MethodGet, Path: "/api/dishes", Session: s}, &out); err != nil {
		return nil, err
	}
	return dishes(out), nil
}

// ListForSeller returns one seller's menu, sold-out dishes included.
func (dc *DishClient) ListForSeller(ctx context.Context, s session.Session, sellerID string) ([]dish.Dish, error) {
	var out []dto.Dish
	req := Request{Method: http.MethodGet, Path: route("/api/sellers/%s/dishes", sellerID), Session: s, UserID: true}
	if err := dc.c.DoJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	list := dishes(out)
	for i := range list {
		if list[i].SellerID == "" {
			list[i].SellerID = sellerID
		}
	}
	return list, nil
}

func dishes(in []dto.Dish) []dish.Dish {
	out := make([]dish.Dish, 0, len(in))
	for _, d := range in {
		out = append(out, d.ToDomain())
	}
	return out
}

func (dc *DishClient) Get(ctx context.Context, s session.Session, dishID string) (dish.Dish, error) {
	var out dto.Dish
	if err := dc.c.DoJSON(ctx, Request{Method: http.MethodGet, Path: route("/api/dishes/%s", dishID), Session: s}, &out); err != nil {
		return dish.Dish{}, err
	}
	return out.ToDomain(), nil
}

func (dc *DishClient) Create(ctx context.Context, s session.Session, d dish.Draft) (dish.Dish, error) {
	if err := s.Require("create dishes", session.RoleSeller); err != nil {
		return dish.Dish{}, err
	}
	if err := d.Validate(); err != nil {
		return dish.Dish{}, err
	}
	var out dto.Dish
	req := Request{Method: http.MethodPost, Path: "/api/dishes", Body: dto.NewDish(d), Session: s, UserID: true}
	if err := dc.c.DoJSON(ctx, req, &out); err != nil {
		return dish.Dish{}, err
	}
	return out.ToDomain(), nil
}

func (dc *DishClient) Update(ctx context.Context, s session.Session, dishID string, d dish.Draft) (dish.Dish, error) {
	if err := s.Require("update dishes", session.RoleSeller); err != nil {
		return dish.Dish{}, err
	}
	if err := d.Validate(); err != nil {
		return dish.Dish{}, err
	}
	var out dto.Dish
	req := Request{Method: http.MethodPut, Path: route("/api/dishes/%s", dishID), Body: dto.NewDish(d), Session: s, UserID: true}
	if err := dc.c.DoJSON(ctx, req, &out); err != nil {
		return dish.Dish{}, err
	}
	return out.ToDomain(), nil
}

func (dc *DishClient) Delete(ctx context.Context, s session.Session, dishID string) error {
	if err := s.Require("delete dishes", session.RoleSeller, session.RoleAdmin); err != nil {
		return err
	}
	_, err := dc.c.Do(ctx, Request{Method: http.MethodDelete, Path: route("/api/dishes/%s", dishID), Session: s, UserID: true})
	return err
}

func (dc *DishClient) SetAvailability(ctx context.Context, s session.Session, dishID string, available bool) (dish.Dish, error) {
	if err := s.Require("change dish availability", session.RoleSeller); err != nil {
		return dish.Dish{}, err
	}
	var out dto.Dish
	req := Request{
		Method:  http.MethodPatch,
		Path:    route("/api/dishes/%s/availability", dishID),
		Body:    dto.Availability{Available: available},
		Session: s,
		UserID:  true,
	}
	if err := dc.c.DoJSON(ctx, req, &out); err != nil {
		return dish.Dish{}, err
	}
	return out.ToDomain(), nil
}
