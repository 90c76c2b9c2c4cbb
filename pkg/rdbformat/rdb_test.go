// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"storj.io/kvcore/pkg/keyspace"
	"storj.io/kvcore/pkg/objval"
	"storj.io/kvcore/pkg/rdbformat"
)

// roundTrip encodes a single-DB registry holding the given key/value
// pairs, then decodes it back and returns the resulting registry.
func roundTrip(t *testing.T, values map[string]*objval.Object) *keyspace.Registry {
	t.Helper()

	reg := keyspace.NewRegistry(1, 0)
	db := reg.DB(0)
	for k, v := range values {
		db.Put(k, v)
	}

	var buf bytes.Buffer
	enc := rdbformat.NewEncoder(&buf)
	require.NoError(t, enc.WriteHeader(rdbformat.AuxFields{RedisVer: "7.0.0", RedisBits: "64"}))
	require.NoError(t, enc.WriteDB(db))
	require.NoError(t, enc.WriteEOF())

	out := keyspace.NewRegistry(1, 0)
	dec := rdbformat.NewDecoder(&buf)
	op, err := dec.ReadHeader()
	require.NoError(t, err)
	require.NoError(t, dec.LoadInto(out, op))
	return out
}

func TestRoundTripString(t *testing.T) {
	out := roundTrip(t, map[string]*objval.Object{
		"int":    objval.NewStringFromInt(42),
		"embstr": objval.NewStringFromBytes([]byte("hello")),
		"raw":    objval.NewStringFromBytes(bytes.Repeat([]byte("x"), 200)),
	})

	v, ok := out.DB(0).Get("int")
	require.True(t, ok)
	n, ok := objval.StringInt(v)
	require.True(t, ok)
	require.EqualValues(t, 42, n)

	v, ok = out.DB(0).Get("embstr")
	require.True(t, ok)
	b, err := objval.StringBytes(v)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	v, ok = out.DB(0).Get("raw")
	require.True(t, ok)
	b, err = objval.StringBytes(v)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte("x"), 200), b)
}

func TestRoundTripList(t *testing.T) {
	list := objval.NewList()
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, objval.ListPush(list, []byte(v)))
	}
	out := roundTrip(t, map[string]*objval.Object{"l": list})

	v, ok := out.DB(0).Get("l")
	require.True(t, ok)
	got, err := objval.ListValues(v)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, got)
}

func TestRoundTripSetIntset(t *testing.T) {
	s := objval.NewSet()
	for _, n := range []string{"3", "1", "2"} {
		_, err := objval.SetAdd(s, []byte(n))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingIntset, s.Encoding())

	out := roundTrip(t, map[string]*objval.Object{"s": s})
	v, ok := out.DB(0).Get("s")
	require.True(t, ok)
	require.Equal(t, objval.EncodingIntset, v.Encoding())
	members, err := objval.SetMembers(v)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"1", "2", "3"}, toStringSlice(members))
}

func TestRoundTripSetHT(t *testing.T) {
	s := objval.NewSet()
	for _, m := range []string{"foo", "bar", "baz"} {
		_, err := objval.SetAdd(s, []byte(m))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingHT, s.Encoding())

	out := roundTrip(t, map[string]*objval.Object{"s": s})
	v, ok := out.DB(0).Get("s")
	require.True(t, ok)
	members, err := objval.SetMembers(v)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"foo", "bar", "baz"}, toStringSlice(members))
}

func TestRoundTripHash(t *testing.T) {
	h := objval.NewHash()
	_, err := objval.HashSet(h, []byte("f1"), []byte("v1"))
	require.NoError(t, err)
	_, err = objval.HashSet(h, []byte("f2"), []byte("v2"))
	require.NoError(t, err)

	out := roundTrip(t, map[string]*objval.Object{"h": h})
	v, ok := out.DB(0).Get("h")
	require.True(t, ok)
	got, ok, err := objval.HashGet(v, []byte("f1"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", string(got))
}

func TestRoundTripSortedSet(t *testing.T) {
	z := objval.NewSortedSet()
	_, err := objval.SortedSetAdd(z, "a", 1.5)
	require.NoError(t, err)
	_, err = objval.SortedSetAdd(z, "b", 0.5)
	require.NoError(t, err)

	out := roundTrip(t, map[string]*objval.Object{"z": z})
	v, ok := out.DB(0).Get("z")
	require.True(t, ok)
	members, scores, err := objval.SortedSetEntries(v)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, members)
	require.Equal(t, []float64{0.5, 1.5}, scores)
}

func TestRoundTripSortedSetSkiplist(t *testing.T) {
	z := objval.NewSortedSet()
	for i := 0; i < objval.ZsetZiplistMaxEntries+5; i++ {
		_, err := objval.SortedSetAdd(z, string(rune('a'+i%26))+string(rune(i)), float64(i))
		require.NoError(t, err)
	}
	require.Equal(t, objval.EncodingSkiplist, z.Encoding())

	out := roundTrip(t, map[string]*objval.Object{"z": z})
	v, ok := out.DB(0).Get("z")
	require.True(t, ok)
	members, _, err := objval.SortedSetEntries(v)
	require.NoError(t, err)
	require.Len(t, members, objval.ZsetZiplistMaxEntries+5)
}

func TestRoundTripStream(t *testing.T) {
	s := objval.NewStream()
	id1, err := objval.StreamAppend(s, 1000, [][2][]byte{{[]byte("field"), []byte("value")}})
	require.NoError(t, err)
	_, err = objval.StreamAppend(s, 1001, [][2][]byte{{[]byte("f2"), []byte("v2")}})
	require.NoError(t, err)
	require.NoError(t, objval.StreamGroupCreate(s, "grp", id1))

	out := roundTrip(t, map[string]*objval.Object{"st": s})
	v, ok := out.DB(0).Get("st")
	require.True(t, ok)
	entries, err := objval.StreamEntries(v)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, id1, entries[0].ID)

	groups, err := objval.StreamGroups(v)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "grp", groups[0].Name)
}

func TestRoundTripExpire(t *testing.T) {
	reg := keyspace.NewRegistry(1, 0)
	db := reg.DB(0)
	db.Put("k", objval.NewStringFromInt(1))
	db.SetExpire("k", 123456789)

	var buf bytes.Buffer
	enc := rdbformat.NewEncoder(&buf)
	require.NoError(t, enc.WriteHeader(rdbformat.AuxFields{}))
	require.NoError(t, enc.WriteDB(db))
	require.NoError(t, enc.WriteEOF())

	out := keyspace.NewRegistry(1, 0)
	dec := rdbformat.NewDecoder(&buf)
	op, err := dec.ReadHeader()
	require.NoError(t, err)
	require.NoError(t, dec.LoadInto(out, op))

	at, ok := out.DB(0).GetExpire("k")
	require.True(t, ok)
	require.EqualValues(t, 123456789, at)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	dec := rdbformat.NewDecoder(bytes.NewReader([]byte("GARBAGE0001")))
	_, err := dec.ReadHeader()
	require.True(t, rdbformat.ErrBadMagic.Has(err))
}

func TestDecodeRejectsChecksumMismatch(t *testing.T) {
	reg := keyspace.NewRegistry(1, 0)
	db := reg.DB(0)
	db.Put("k", objval.NewStringFromInt(1))

	var buf bytes.Buffer
	enc := rdbformat.NewEncoder(&buf)
	require.NoError(t, enc.WriteHeader(rdbformat.AuxFields{}))
	require.NoError(t, enc.WriteDB(db))
	require.NoError(t, enc.WriteEOF())

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	out := keyspace.NewRegistry(1, 0)
	dec := rdbformat.NewDecoder(bytes.NewReader(corrupted))
	op, err := dec.ReadHeader()
	require.NoError(t, err)
	require.True(t, rdbformat.ErrChecksumMismatch.Has(dec.LoadInto(out, op)))
}

func toStringSlice(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
