package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"CUSTOMER", RoleCustomer},
		{"customer", RoleCustomer},
		{"USER", RoleCustomer},
		{" seller ", RoleSeller},
		{"ROLE_ADMIN", RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRole("chef")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSessionRequire(t *testing.T) {
	seller := Session{UserID: "7", Role: RoleSeller, Token: "tok"}

	t.Run("unauthenticated", func(t *testing.T) {
		err := Session{UserID: "7"}.Require("accept orders", RoleSeller)
		assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	})

	t.Run("wrong role", func(t *testing.T) {
		err := seller.Require("place orders", RoleCustomer)
		require.ErrorIs(t, err, apperr.ErrForbidden)
		assert.Contains(t, err.Error(), "requires role CUSTOMER")
	})

	t.Run("any of roles", func(t *testing.T) {
		assert.NoError(t, seller.Require("edit dishes", RoleSeller, RoleAdmin))
	})

	t.Run("no roles means any signed in user", func(t *testing.T) {
		assert.NoError(t, seller.Require("view profile"))
	})
}
