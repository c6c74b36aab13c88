package users

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

func TestRegistrationValidate(t *testing.T) {
	ok := Registration{Credentials: Credentials{Username: "amira", Password: "secret1"}, Email: "a@b.c", Role: session.RoleSeller}
	assert.NoError(t, ok.Validate())

	tests := map[string]Registration{
		"no username":    {Credentials: Credentials{Password: "secret1"}},
		"no password":    {Credentials: Credentials{Username: "amira"}},
		"short password": {Credentials: Credentials{Username: "amira", Password: "abc"}},
		"bad email":      {Credentials: Credentials{Username: "amira", Password: "secret1"}, Email: "nope"},
		"bad role":       {Credentials: Credentials{Username: "amira", Password: "secret1"}, Role: "CHEF"},
	}
	for name, r := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, r.Validate(), apperr.ErrValidation)
		})
	}
}
