// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/objval"
)

// TestSortedSetOrderPreservedAcrossTransition checks that iteration
// order is preserved across a ZIPLIST -> SKIPLIST encoding transition.
func TestSortedSetOrderPreservedAcrossTransition(t *testing.T) {
	z := objval.NewSortedSet()
	for i := 0; i < 10; i++ {
		_, err := objval.SortedSetAdd(z, fmt.Sprintf("m%02d", 9-i), float64(9-i))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingZiplist, z.Encoding())
	members, scores, err := objval.SortedSetEntries(z)
	require.NoError(t, err)
	for i := 1; i < len(scores); i++ {
		require.LessOrEqual(t, scores[i-1], scores[i])
	}

	for i := 0; i < objval.ZsetZiplistMaxEntries+1; i++ {
		_, err := objval.SortedSetAdd(z, fmt.Sprintf("big%d", i), float64(100+i))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingSkiplist, z.Encoding())

	members2, scores2, err := objval.SortedSetEntries(z)
	require.NoError(t, err)
	require.Equal(t, members, members2[:len(members)])
	require.Equal(t, scores, scores2[:len(scores)])
	for i := 1; i < len(scores2); i++ {
		require.LessOrEqual(t, scores2[i-1], scores2[i])
	}
}

func TestSortedSetUpdateScore(t *testing.T) {
	z := objval.NewSortedSet()
	_, err := objval.SortedSetAdd(z, "a", 1)
	require.NoError(t, err)
	added, err := objval.SortedSetAdd(z, "a", 5)
	require.NoError(t, err)
	require.False(t, added)

	score, ok, err := objval.SortedSetScore(z, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5.0, score)
}
