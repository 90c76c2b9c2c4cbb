// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package primary_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storj.io/kvcore/pkg/replication/primary"
	"storj.io/kvcore/pkg/replid"
)

func TestPropagateSkipsWaitBgsaveStart(t *testing.T) {
	e := primary.NewEngine(zaptest.NewLogger(t), 1024, 16)
	waiting := e.Attach("r1")
	online := e.Attach("r2")
	online.State = primary.Online

	e.Propagate(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})

	require.Empty(t, waiting.DrainOutput())
	out := online.DrainOutput()
	require.Len(t, out, 1)
	require.Contains(t, string(out[0]), "SET")
}

func TestPropagateEmitsSelectOnDBChange(t *testing.T) {
	e := primary.NewEngine(zaptest.NewLogger(t), 1024, 16)
	r := e.Attach("r1")
	r.State = primary.Online

	e.Propagate(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	e.Propagate(1, [][]byte{[]byte("SET"), []byte("k2"), []byte("v2")})

	out := r.DrainOutput()
	require.Len(t, out, 2)
	require.NotContains(t, string(out[0]), "SELECT")
	require.Contains(t, string(out[1]), "SELECT")
}

func TestDecidePSYNCFullResyncOnUnknownReplID(t *testing.T) {
	e := primary.NewEngine(zaptest.NewLogger(t), 1024, 16)
	d := e.DecidePSYNC(replid.Unknown, -1)
	require.False(t, d.Partial)
}

func TestDecidePSYNCPartialWithinBacklog(t *testing.T) {
	e := primary.NewEngine(zaptest.NewLogger(t), 1024, 16)
	e.Propagate(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	offset := e.Backlog.Offset()

	d := e.DecidePSYNC(e.Identity.ReplID, 1)
	require.True(t, d.Partial)
	require.NotEmpty(t, d.Backlog)
	require.EqualValues(t, offset, e.Backlog.Offset())
}

func TestDecidePSYNCFullResyncBeyondBacklog(t *testing.T) {
	e := primary.NewEngine(zaptest.NewLogger(t), 16, 16)
	for i := 0; i < 20; i++ {
		e.Propagate(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	}
	d := e.DecidePSYNC(e.Identity.ReplID, 1)
	require.False(t, d.Partial)
}

func TestGoodReplicaCount(t *testing.T) {
	e := primary.NewEngine(zaptest.NewLogger(t), 1024, 16)
	now := time.Now()

	fresh := e.Attach("fresh")
	fresh.State = primary.Online
	fresh.Ack(0, now)

	stale := e.Attach("stale")
	stale.State = primary.Online
	stale.Ack(0, now.Add(-time.Hour))

	require.Equal(t, 1, e.GoodReplicaCount(now, 10*time.Second))
}

func TestWaitBarrierResolvesOnReachedCount(t *testing.T) {
	b := primary.NewWaitBarrier()
	done := b.Park(100, 2, time.Second)

	require.True(t, b.Poll(time.Now(), func(int64) int { return 1 }))
	require.False(t, b.Poll(time.Now(), func(int64) int { return 2 }))

	select {
	case n := <-done:
		require.Equal(t, 2, n)
	default:
		t.Fatal("expected waiter to resolve")
	}
}

func TestWaitBarrierResolvesOnTimeout(t *testing.T) {
	b := primary.NewWaitBarrier()
	done := b.Park(100, 5, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	b.Poll(time.Now(), func(int64) int { return 1 })

	select {
	case n := <-done:
		require.Equal(t, 1, n)
	default:
		t.Fatal("expected waiter to time out")
	}
}

func TestScriptCacheFIFOEviction(t *testing.T) {
	c := primary.NewScriptCache(2)
	c.Add("a")
	c.Add("b")
	require.True(t, c.Has("a"))
	c.Add("c")
	require.False(t, c.Has("a"))
	require.True(t, c.Has("b"))
	require.True(t, c.Has("c"))

	c.Flush()
	require.Equal(t, 0, c.Len())
}
