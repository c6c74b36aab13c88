package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/dish"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

func dishA() dish.Dish {
	return dish.Dish{ID: "1", Name: "Molokhia", Price: decimal.NewFromInt(10), Available: true}
}

func dishB() dish.Dish {
	return dish.Dish{ID: "2", Name: "Fatta", Price: decimal.RequireFromString("7.25"), Available: true}
}

func TestAddItemMergesRepeatedDish(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(dishA(), 1))
	require.NoError(t, c.AddItem(dishA(), 2))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestAddItemDefaultsAndGuards(t *testing.T) {
	t.Run("zero quantity means one", func(t *testing.T) {
		c := New()
		require.NoError(t, c.AddItem(dishA(), 0))
		assert.Equal(t, 1, c.Lines()[0].Quantity)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		c := New()
		assert.ErrorIs(t, c.AddItem(dishA(), -1), apperr.ErrValidation)
		assert.Zero(t, c.Len())
	})

	t.Run("unavailable dish ignored", func(t *testing.T) {
		c := New()
		d := dishA()
		d.Available = false
		require.NoError(t, c.AddItem(d, 1))
		assert.Zero(t, c.Len())
	})

	t.Run("missing id rejected", func(t *testing.T) {
		assert.ErrorIs(t, New().AddItem(dish.Dish{Available: true}, 1), apperr.ErrValidation)
	})
}

func TestSetQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(dishA(), 2))

	require.NoError(t, c.SetQuantity("1", 5))
	assert.Equal(t, 5, c.Lines()[0].Quantity)

	assert.ErrorIs(t, c.SetQuantity("1", 0), apperr.ErrValidation)
	assert.ErrorIs(t, c.SetQuantity("1", -3), apperr.ErrValidation)
	assert.Equal(t, 5, c.Lines()[0].Quantity, "rejected updates leave the line untouched")

	assert.ErrorIs(t, c.SetQuantity("99", 1), apperr.ErrValidation)
}

func TestAdjustClampsAtOne(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(dishA(), 2))

	require.NoError(t, c.Adjust("1", -5))
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	require.NoError(t, c.Adjust("1", 1))
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(dishA(), 1))
	require.NoError(t, c.AddItem(dishB(), 1))

	c.RemoveItem("1")
	c.RemoveItem("missing")

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "2", lines[0].DishID)
}

func TestTotal(t *testing.T) {
	c := New()
	assert.True(t, c.Total().IsZero())

	require.NoError(t, c.AddItem(dishA(), 2))
	require.NoError(t, c.AddItem(dishB(), 2))
	assert.True(t, decimal.RequireFromString("34.5").Equal(c.Total()), "got %s", c.Total())

	c.RemoveItem("1")
	c.RemoveItem("2")
	assert.True(t, c.Total().IsZero())
}

func TestToOrderRequest(t *testing.T) {
	_, err := New().ToOrderRequest()
	require.ErrorIs(t, err, apperr.ErrEmptyCart)

	c := New()
	require.NoError(t, c.AddItem(dishA(), 2))
	req, err := c.ToOrderRequest()
	require.NoError(t, err)

	require.NoError(t, c.SetQuantity("1", 9))
	items := req.Items()
	items[0].Quantity = 100

	assert.Equal(t, []RequestItem{{DishID: "1", Quantity: 2}}, req.Items(), "request is a snapshot")
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(dishA(), 1))
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	c, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Zero(t, c.Len())

	require.NoError(t, c.AddItem(dishA(), 2))
	require.NoError(t, c.AddItem(dishB(), 1))
	require.NoError(t, Save(ctx, store, c))

	restored, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())
	assert.True(t, c.Total().Equal(restored.Total()))

	restored.Clear()
	require.NoError(t, Save(ctx, store, restored))
	_, ok, _ := store.Get(ctx, session.KeyCart)
	assert.False(t, ok)
}

func TestRestoreDropsMalformedLines(t *testing.T) {
	c := New()
	require.NoError(t, c.Restore([]byte(`{"lines":[{"dishId":"1","name":"x","unitPrice":"3","quantity":0},{"dishId":"2","name":"y","unitPrice":"4","quantity":2}]}`)))
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "2", lines[0].DishID)

	assert.Error(t, c.Restore([]byte("{")))
}
