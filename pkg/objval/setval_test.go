// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/objval"
)

// TestSetEncodingTransition mirrors spec scenario D: SADD of ints keeps
// intset; adding a non-integer member upgrades to hashtable, and all
// members remain readable afterward regardless of insertion order.
func TestSetEncodingTransition(t *testing.T) {
	s := objval.NewSet()

	for _, m := range [][]byte{[]byte("1"), []byte("2"), []byte("3")} {
		added, err := objval.SetAdd(s, m)
		require.NoError(t, err)
		require.True(t, added)
	}
	require.Equal(t, objval.EncodingIntset, s.Encoding())

	added, err := objval.SetAdd(s, []byte("foo"))
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, objval.EncodingHT, s.Encoding())

	members, err := objval.SetMembers(s)
	require.NoError(t, err)
	got := map[string]bool{}
	for _, m := range members {
		got[string(m)] = true
	}
	require.Equal(t, map[string]bool{"1": true, "2": true, "3": true, "foo": true}, got)
}

func TestIntsetStaysSortedAndDedupes(t *testing.T) {
	s := objval.NewSet()
	for _, n := range []int{5, 1, 3, 1, 4} {
		_, err := objval.SetAdd(s, []byte(fmt.Sprintf("%d", n)))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingIntset, s.Encoding())
	members, err := objval.SetMembers(s)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3", "4", "5"}, toStrings(members))
}

func TestIntsetTransitionOnEntryCountOverflow(t *testing.T) {
	s := objval.NewSet()
	for i := 0; i < objval.SetIntsetMaxEntries; i++ {
		_, err := objval.SetAdd(s, []byte(fmt.Sprintf("%d", i)))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingIntset, s.Encoding())

	_, err := objval.SetAdd(s, []byte(fmt.Sprintf("%d", objval.SetIntsetMaxEntries)))
	require.NoError(t, err)
	require.Equal(t, objval.EncodingHT, s.Encoding())
}

func toStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
