// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package keyspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/objval"
)

func TestPutGetDelete(t *testing.T) {
	db := NewDB(0, nil)
	db.Put("a", objval.NewStringFromBytes([]byte("1")))

	v, ok := db.Get("a")
	require.True(t, ok)
	b, err := objval.StringBytes(v)
	require.NoError(t, err)
	require.Equal(t, "1", string(b))

	require.True(t, db.Delete("a"))
	_, ok = db.Get("a")
	require.False(t, ok)
	require.False(t, db.Delete("a"))
}

func TestPutOverwriteReleasesOldValue(t *testing.T) {
	db := NewDB(0, nil)
	old := objval.NewStringFromBytes([]byte("1"))
	db.Put("a", old)
	require.EqualValues(t, 1, old.RefCount())

	db.Put("a", objval.NewStringFromBytes([]byte("2")))

	// No lazyFree queue configured, so the overwrite must DecrRef the old
	// value inline, dropping it to zero.
	require.EqualValues(t, 0, old.RefCount())

	v, ok := db.Get("a")
	require.True(t, ok)
	b, err := objval.StringBytes(v)
	require.NoError(t, err)
	require.Equal(t, "2", string(b))
}

func TestPutOverwriteEnqueuesOldValueForLazyFree(t *testing.T) {
	q := NewLazyFreeQueue(4)
	defer q.Close()

	db := NewDB(0, q)
	old := objval.NewStringFromBytes([]byte("1"))
	db.Put("a", old)
	db.Put("a", objval.NewStringFromBytes([]byte("2")))

	require.Eventually(t, func() bool {
		return old.RefCount() == 0
	}, time.Second, time.Millisecond)
}

func TestForEachStableUnderMutation(t *testing.T) {
	db := NewDB(0, nil)
	for _, k := range []string{"a", "b", "c"} {
		db.Put(k, objval.NewStringFromBytes([]byte(k)))
	}

	seen := map[string]bool{}
	db.ForEach(func(key string, _ *objval.Object) bool {
		seen[key] = true
		if key == "b" {
			db.Delete("a") // mutate mid-iteration
			db.Put("d", objval.NewStringFromBytes([]byte("d")))
		}
		return true
	})

	// The snapshot taken at ForEach-start should still include "a", and
	// need not include the concurrently-inserted "d".
	require.True(t, seen["a"])
	require.True(t, seen["b"])
	require.True(t, seen["c"])
	require.False(t, seen["d"])

	// Post-iteration state reflects the mutations.
	require.False(t, db.Exists("a"))
	require.True(t, db.Exists("d"))
}

func TestRandomKeyEmpty(t *testing.T) {
	db := NewDB(0, nil)
	_, ok := db.RandomKey()
	require.False(t, ok)
}

func TestEveryExpireEntryHasDictEntry(t *testing.T) {
	db := NewDB(0, nil)
	db.Put("a", objval.NewStringFromBytes([]byte("1")))
	require.True(t, db.SetExpire("a", 1))
	require.True(t, db.Delete("a"))

	_, hasExpire := db.GetExpire("a")
	require.False(t, hasExpire, "deleting from dict must also delete from expires")
}
