// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package lzf_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/rdbformat/lzf"
)

func TestRoundTripRepeated(t *testing.T) {
	src := []byte(strings.Repeat("abcdefgh", 200))
	compressed := lzf.Compress(src)
	require.NotNil(t, compressed)
	require.Less(t, len(compressed), len(src))

	out, err := lzf.Decompress(compressed, len(src))
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestRoundTripRandomIncompressible(t *testing.T) {
	src := make([]byte, 256)
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec
	rnd.Read(src)

	compressed := lzf.Compress(src)
	// random bytes may or may not compress; if they did, verify round trip
	// still holds.
	if compressed == nil {
		return
	}
	out, err := lzf.Decompress(compressed, len(src))
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestCompressTooShortReturnsNil(t *testing.T) {
	require.Nil(t, lzf.Compress([]byte("ab")))
}

func TestDecompressTruncatedErrors(t *testing.T) {
	_, err := lzf.Decompress([]byte{0x01}, 10) // literal run claims 2 bytes, none follow
	require.Error(t, err)
}

func TestRoundTripVariousLengths(t *testing.T) {
	for _, n := range []int{0, 1, 3, 20, 21, 100, 1000, 5000} {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i % 17)
		}
		compressed := lzf.Compress(src)
		if compressed == nil {
			continue
		}
		out, err := lzf.Decompress(compressed, n)
		require.NoError(t, err)
		require.Equal(t, src, out)
	}
}
