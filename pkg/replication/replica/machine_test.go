// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package replica_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storj.io/kvcore/pkg/keyspace"
	"storj.io/kvcore/pkg/objval"
	"storj.io/kvcore/pkg/rdbformat"
	"storj.io/kvcore/pkg/rdbformat/eofmark"
	"storj.io/kvcore/pkg/replication/replica"
	"storj.io/kvcore/pkg/replid"
)

func TestHandshakeSkipsAuthWhenConfigured(t *testing.T) {
	m := replica.NewMachine(zaptest.NewLogger(t), true)
	require.Equal(t, replica.None, m.State)

	m.Advance() // -> Connect
	m.Advance() // -> Connecting
	m.Advance() // -> ReceivePong
	m.Advance() // -> SendPort (auth skipped)
	require.Equal(t, replica.SendPort, m.State)
}

func TestHandshakeGoesThroughAuthWhenConfigured(t *testing.T) {
	m := replica.NewMachine(zaptest.NewLogger(t), false)
	m.State = replica.ReceivePong
	m.Advance()
	require.Equal(t, replica.SendAuth, m.State)
}

func TestPSYNCRequestFreshVsCached(t *testing.T) {
	m := replica.NewMachine(zaptest.NewLogger(t), true)
	id, off := m.PSYNCRequest()
	require.Equal(t, replid.Unknown, id)
	require.EqualValues(t, -1, off)

	m.HandleFullResync(replid.New(), 42)
	m.LinkDropped()
	require.True(t, m.HasCachedMaster())

	cachedID, cachedOff := m.PSYNCRequest()
	require.EqualValues(t, 43, cachedOff)
	require.NotEqual(t, replid.Unknown, cachedID)
}

func TestContinueResurrectsCachedMasterWithRotatedID(t *testing.T) {
	m := replica.NewMachine(zaptest.NewLogger(t), true)
	m.HandleFullResync(replid.New(), 10)
	m.LinkDropped()

	newID := replid.New()
	m.HandleContinue(newID)
	require.False(t, m.HasCachedMaster())
	require.Equal(t, newID, m.ReplID())
	require.EqualValues(t, 10, m.Offset())
}

func TestLoadSnapshotFromDisk(t *testing.T) {
	src := keyspace.NewRegistry(1, 0)
	src.DB(0).Put("k", objval.NewStringFromInt(7))

	var buf bytes.Buffer
	enc := rdbformat.NewEncoder(&buf)
	require.NoError(t, enc.WriteHeader(rdbformat.AuxFields{}))
	require.NoError(t, enc.WriteDB(src.DB(0)))
	require.NoError(t, enc.WriteEOF())

	dst := keyspace.NewRegistry(1, 0)
	require.NoError(t, replica.LoadSnapshotFromDisk(&buf, dst))

	v, ok := dst.DB(0).Get("k")
	require.True(t, ok)
	n, ok := objval.StringInt(v)
	require.True(t, ok)
	require.EqualValues(t, 7, n)
}

func TestLoadSnapshotDisklessWithEOFTag(t *testing.T) {
	src := keyspace.NewRegistry(1, 0)
	src.DB(0).Put("k", objval.NewStringFromInt(9))

	tag := eofmark.NewTag()
	var buf bytes.Buffer
	enc := rdbformat.NewEncoder(&buf)
	require.NoError(t, enc.WriteHeader(rdbformat.AuxFields{}))
	require.NoError(t, enc.WriteDB(src.DB(0)))
	require.NoError(t, enc.WriteStreamingEOF(tag))

	dst := keyspace.NewRegistry(1, 0)
	require.NoError(t, replica.LoadSnapshotDiskless(&buf, tag, dst))

	v, ok := dst.DB(0).Get("k")
	require.True(t, ok)
	n, ok := objval.StringInt(v)
	require.True(t, ok)
	require.EqualValues(t, 9, n)
}
