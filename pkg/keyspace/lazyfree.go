// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package keyspace

import (
	"context"

	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"storj.io/kvcore/pkg/objval"
)

var mon = monkit.Package()

// LazyFreeQueue defers DecrRef of deleted values' owned representations
// to a background goroutine: a fire-and-forget decref that never blocks
// the caller, up to the queue's bound.
//
// Uses a bounded-channel-plus-worker idiom to keep goroutine fan-out
// under an explicit cap rather than spawning one goroutine per deletion.
type LazyFreeQueue struct {
	queue chan *objval.Object
	done  chan struct{}
}

// NewLazyFreeQueue starts a single background worker draining a queue of
// capacity bufSize. Callers must call Close when done to stop the
// worker.
func NewLazyFreeQueue(bufSize int) *LazyFreeQueue {
	q := &LazyFreeQueue{
		queue: make(chan *objval.Object, bufSize),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *LazyFreeQueue) run() {
	defer close(q.done)
	for v := range q.queue {
		if v != nil {
			v.DecrRef()
		}
	}
}

// Enqueue schedules v's DecrRef to run on the background worker. If the
// queue is full, Enqueue blocks -- this is an explicit backpressure
// choice: an unbounded queue could grow without limit under a delete
// storm, defeating the point of deferring the work at all.
func (q *LazyFreeQueue) Enqueue(v *objval.Object) {
	q.queue <- v
}

// EnqueueContext is like Enqueue but respects ctx cancellation while
// waiting for queue space.
func (q *LazyFreeQueue) EnqueueContext(ctx context.Context, v *objval.Object) (err error) {
	defer mon.Task()(&ctx)(&err)
	select {
	case q.queue <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new work and waits for the worker to drain and
// exit.
func (q *LazyFreeQueue) Close() {
	close(q.queue)
	<-q.done
}

// Pending returns the number of values currently queued for release,
// useful for tests and MEMORY STATS-style introspection.
func (q *LazyFreeQueue) Pending() int { return len(q.queue) }
