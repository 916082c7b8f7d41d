package session

import (
	"context"
	"sync"
)

// RefreshGate collapses concurrent credential-rotation attempts into a single
// flight. Many requests arriving with the same expired access credential
// would otherwise each attempt a rotation, causing redundant writes to the
// durable refresh record.
//
// Lifecycle: constructed once per process and passed explicitly into every
// request/connection context. Never ambient global state.
//
// Protocol:
//   - The first caller becomes the leader, runs the rotation, and on return
//     drains every queued waiter with the rotation outcome.
//   - Callers arriving while a rotation is in flight enqueue themselves and
//     block until drained (or their context ends). They observe only the
//     post-rotation state because the drain happens after the rotation has
//     fully committed.
//   - The gate is released on every exit path, success or failure. A failed
//     rotation is not retried here; a later request starts a clean flight.
type RefreshGate struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan error
}

// NewRefreshGate constructs the process-wide refresh gate.
func NewRefreshGate() *RefreshGate {
	return &RefreshGate{}
}

// Do runs rotate single-flight.
//
// The leader's return value is rotate's own result. Waiters receive the
// leader's result as well; callers re-run their access verification after a
// nil result, which now succeeds against the newly issued credential.
// Resumption order is unspecified.
func (g *RefreshGate) Do(ctx context.Context, rotate func() error) (leader bool, err error) {
	g.mu.Lock()
	if g.refreshing {
		ch := make(chan error, 1)
		g.waiters = append(g.waiters, ch)
		g.mu.Unlock()

		select {
		case err := <-ch:
			return false, err
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	g.refreshing = true
	g.mu.Unlock()

	res := rotate()

	g.mu.Lock()
	g.refreshing = false
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	// Buffered channels: draining never blocks on a waiter that gave up.
	for _, ch := range waiters {
		ch <- res
	}

	return true, res
}

// Refreshing reports whether a rotation is currently in flight.
func (g *RefreshGate) Refreshing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshing
}
