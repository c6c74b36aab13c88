package dto

import (
	"github.com/shopspring/decimal"

	"github.com/joue-zero/homemade-dishes/internal/dish"
)

type Company struct {
	ID      ID     `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Dish covers both catalog shapes: sellers as sellerId or as a nested company.
type Dish struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Available   *bool           `json:"available,omitempty"`
	SellerID    ID              `json:"sellerId,omitempty"`
	Company     *Company        `json:"company,omitempty"`
}

func (d Dish) ToDomain() dish.Dish {
	out := dish.Dish{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Available:   true,
		SellerID:    d.SellerID.String(),
	}
	if d.Available != nil {
		out.Available = *d.Available
	}
	if d.Company != nil {
		if out.SellerID == "" {
			out.SellerID = d.Company.ID.String()
		}
		out.SellerName = d.Company.Name
	}
	return out
}

func NewDish(d dish.Draft) Dish {
	available := d.Available
	return Dish{
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Available:   &available,
	}
}

type Availability struct {
	Available bool `json:"available"`
}
