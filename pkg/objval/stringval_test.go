// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/objval"
)

func TestTryEncodeStringPicksInt(t *testing.T) {
	o := objval.NewStringFromBytes([]byte("12345"))
	require.Equal(t, objval.EncodingInt, o.Encoding())
	n, err := objval.AsInteger(o)
	require.NoError(t, err)
	require.EqualValues(t, 12345, n)
}

func TestTryEncodeStringRejectsNonCanonicalInt(t *testing.T) {
	o := objval.NewStringFromBytes([]byte("007"))
	require.NotEqual(t, objval.EncodingInt, o.Encoding())
}

func TestTryEncodeStringEmbstr(t *testing.T) {
	o := objval.NewStringFromBytes([]byte("hello world"))
	require.Equal(t, objval.EncodingEmbstr, o.Encoding())
}

func TestTryEncodeStringRaw(t *testing.T) {
	big := strings.Repeat("x", objval.EmbstrMaxLen+1)
	o := objval.NewStringFromBytes([]byte(big))
	require.Equal(t, objval.EncodingRaw, o.Encoding())
}

func TestAppendStringForcesRaw(t *testing.T) {
	o := objval.NewStringFromBytes([]byte("12345"))
	require.Equal(t, objval.EncodingInt, o.Encoding())

	require.NoError(t, objval.AppendString(o, []byte("67")))
	require.Equal(t, objval.EncodingRaw, o.Encoding())

	b, err := objval.StringBytes(o)
	require.NoError(t, err)
	require.Equal(t, "1234567", string(b))
}

func TestAppendStringPanicsOnShared(t *testing.T) {
	pool := objval.NewDefaultPool()
	shared := pool.GetOrCreateInt(5, objval.NoTouchPolicy{})
	require.True(t, shared.IsShared())
	require.Panics(t, func() { _ = objval.AppendString(shared, []byte("x")) })
}

func TestCompareBinary(t *testing.T) {
	a := objval.NewStringFromBytes([]byte("abc"))
	b := objval.NewStringFromBytes([]byte("abd"))
	cmp, err := objval.CompareBinary(a, b)
	require.NoError(t, err)
	require.Less(t, cmp, 0)
}
