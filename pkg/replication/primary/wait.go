// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package primary

import (
	"sync"
	"time"
)

// waiter is one parked WAIT client: it unblocks once need replicas
// have acked at least target, or deadline passes.
type waiter struct {
	target   int64
	need     int
	deadline time.Time
	done     chan int // reached replica count, sent exactly once
}

// WaitBarrier parks WAIT callers and resolves them as replica acks
// arrive, coalescing the GETACK broadcast into one per Poll call
// regardless of how many clients are currently parked.
type WaitBarrier struct {
	mu      sync.Mutex
	waiters []*waiter
}

// NewWaitBarrier creates an empty barrier.
func NewWaitBarrier() *WaitBarrier { return &WaitBarrier{} }

// Park registers a WAIT n timeout call with targetOffset as the target
// (typically the primary's current master_repl_offset), and
// returns at once with a channel that receives the reached replica count
// when n replicas ack that offset or timeout elapses. The caller's event loop must still
// call Poll periodically (e.g. once per iteration) to evaluate parked
// waiters against the engine's current ack state.
func (w *WaitBarrier) Park(targetOffset int64, n int, timeout time.Duration) <-chan int {
	done := make(chan int, 1)
	ww := &waiter{target: targetOffset, need: n, deadline: time.Now().Add(timeout), done: done}
	w.mu.Lock()
	w.waiters = append(w.waiters, ww)
	w.mu.Unlock()
	return done
}

// Poll evaluates every parked waiter against reachedAt (a function
// reporting how many replicas have acked at least the given offset as
// of now), resolving any that are satisfied or have timed out, and
// returns true if any waiter remains parked (the caller should issue
// one coalesced REPLCONF GETACK * broadcast when this is true).
func (w *WaitBarrier) Poll(now time.Time, reachedAt func(offset int64) int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	remaining := w.waiters[:0]
	for _, ww := range w.waiters {
		reached := reachedAt(ww.target)
		switch {
		case reached >= ww.need:
			ww.done <- reached
		case now.After(ww.deadline):
			ww.done <- reached
		default:
			remaining = append(remaining, ww)
		}
	}
	w.waiters = remaining
	return len(w.waiters) > 0
}

// Len returns the number of currently parked waiters.
func (w *WaitBarrier) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters)
}
