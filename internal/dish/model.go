package dish

import "github.com/shopspring/decimal"

// Dish is a catalog entry offered by a seller.
type Dish struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Available   bool            `json:"available" yaml:"available"`
	SellerID    string          `json:"sellerId,omitempty" yaml:"sellerId,omitempty"`
	SellerName  string          `json:"sellerName,omitempty" yaml:"sellerName,omitempty"`
}

// Draft carries the editable fields of a dish for create and update calls.
type Draft struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Available   bool            `json:"available" yaml:"available"`
}
