package dish

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr bool
	}{
		{"ok", Draft{Name: "Koshari", Price: decimal.NewFromInt(10)}, false},
		{"missing name", Draft{Name: "  ", Price: decimal.NewFromInt(10)}, true},
		{"zero price", Draft{Name: "Koshari"}, true},
		{"negative price", Draft{Name: "Koshari", Price: decimal.NewFromInt(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
