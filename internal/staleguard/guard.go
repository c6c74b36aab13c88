// Package staleguard discards responses that arrive after their view moved on.
//
// Every fetch takes a Ticket for a view key. Starting a newer fetch for the
// same key, or tearing the view down, makes older tickets stale.
package staleguard

import (
	"sync"

	"github.com/google/uuid"
)

type Guard struct {
	mu      sync.Mutex
	current map[string]string
}

func New() *Guard {
	return &Guard{current: make(map[string]string)}
}

type Ticket struct {
	g   *Guard
	key string
	id  string
}

// Begin registers a new request for key and supersedes earlier ones.
func (g *Guard) Begin(key string) Ticket {
	id := uuid.NewString()
	g.mu.Lock()
	g.current[key] = id
	g.mu.Unlock()
	return Ticket{g: g, key: key, id: id}
}

// Teardown invalidates every outstanding ticket for key.
func (g *Guard) Teardown(key string) {
	g.mu.Lock()
	delete(g.current, key)
	g.mu.Unlock()
}

// Current reports whether the ticket is still the latest for its key.
func (t Ticket) Current() bool {
	if t.g == nil {
		return false
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	return t.g.current[t.key] == t.id
}

// Done releases the ticket if it is still current.
func (t Ticket) Done() {
	if t.g == nil {
		return
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.g.current[t.key] == t.id {
		delete(t.g.current, t.key)
	}
}

func (t Ticket) ID() string { return t.id }
