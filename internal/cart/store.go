package cart

import (
	"context"
	"fmt"

	"github.com/joue-zero/homemade-dishes/internal/session"
)

// Load restores the cart persisted in the session store. A missing entry
// yields an empty cart.
func Load(ctx context.Context, store session.Store) (*Aggregator, error) {
	a := New()
	raw, ok, err := store.Get(ctx, session.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !ok || raw == "" {
		return a, nil
	}
	if err := a.Restore([]byte(raw)); err != nil {
		return nil, err
	}
	return a, nil
}

func Save(ctx context.Context, store session.Store, a *Aggregator) error {
	if a.Len() == 0 {
		return store.Delete(ctx, session.KeyCart)
	}
	data, err := a.Snapshot()
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := store.Set(ctx, session.KeyCart, string(data)); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}
