// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package keyspace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/objval"
)

// TestExpirationVisibility checks that a key whose expiration is in the
// past is invisible to reads and absent from iteration, even before the
// periodic sampler has swept it.
func TestExpirationVisibility(t *testing.T) {
	var fakeNow int64 = 1000
	orig := nowFunc
	nowFunc = func() int64 { return fakeNow }
	defer func() { nowFunc = orig }()

	db := NewDB(0, nil)
	db.Put("a", objval.NewStringFromBytes([]byte("1")))
	require.True(t, db.SetExpire("a", 500)) // already in the past

	_, ok := db.Get("a")
	require.False(t, ok)

	count := 0
	db.ForEach(func(string, *objval.Object) bool { count++; return true })
	require.Equal(t, 0, count)
}

func TestExpireCycleSweepsPastKeys(t *testing.T) {
	var fakeNow int64 = 1000
	orig := nowFunc
	nowFunc = func() int64 { return fakeNow }
	defer func() { nowFunc = orig }()

	db := NewDB(0, nil)
	for i := 0; i < 5; i++ {
		k := string(rune('a' + i))
		db.Put(k, objval.NewStringFromBytes([]byte(k)))
		db.SetExpire(k, 500)
	}
	require.Equal(t, 5, db.ExpireCycle())
	require.Equal(t, 0, db.Len())
}

func TestPersistExpire(t *testing.T) {
	db := NewDB(0, nil)
	db.Put("a", objval.NewStringFromBytes([]byte("1")))
	require.True(t, db.SetExpire("a", 1))
	require.True(t, db.PersistExpire("a"))
	_, ok := db.GetExpire("a")
	require.False(t, ok)
}
