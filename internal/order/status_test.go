package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusReady, false},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusReady, true},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusCancelled, false},
		{StatusReady, StatusCompleted, true},
		{StatusReady, StatusAccepted, false},
		{StatusCompleted, StatusPending, false},
		{StatusRejected, StatusAccepted, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReady.Terminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" accepted ")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, s)

	s, err = ParseStatus("canceled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestParsePaymentStatus(t *testing.T) {
	ps, err := ParsePaymentStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, ps)

	ps, err = ParsePaymentStatus("")
	require.NoError(t, err)
	assert.Equal(t, PaymentNone, ps)

	_, err = ParsePaymentStatus("refunded")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
