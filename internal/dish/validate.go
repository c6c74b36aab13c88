package dish

import (
	"strings"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

// Validate checks a draft before it is sent to the dishes service.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return apperr.Invalid("name", "is required")
	}
	if !d.Price.IsPositive() {
		return apperr.Invalid("price", "must be greater than zero")
	}
	return nil
}
