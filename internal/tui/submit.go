package tui

import (
	"context"

	"github.com/naveenspark/taskboard/pkg/client"
)

// submitGuard blocks a second submit while one is in flight and gives each
// submit its own idempotency key.
type submitGuard struct {
	pending bool
	key     string
}

// begin starts a submit. It reports false if one is already pending.
func (g *submitGuard) begin() bool {
	if g.pending {
		return false
	}
	g.pending = true
	g.key = client.NewIdempotencyKey()
	return true
}

func (g *submitGuard) done() {
	g.pending = false
	g.key = ""
}

// ctx attaches the current submit's idempotency key.
func (g submitGuard) ctx(parent context.Context) context.Context {
	return client.WithIdempotencyKey(parent, g.key)
}
