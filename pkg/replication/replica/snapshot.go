// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package replica

import (
	"io"

	"storj.io/kvcore/pkg/keyspace"
	"storj.io/kvcore/pkg/rdbformat"
	"storj.io/kvcore/pkg/rdbformat/eofmark"
)

// SwapPolicy controls whether LoadSnapshot keeps the current dataset
// available as a rollback target while loading a new one.
type SwapPolicy uint8

const (
	// SwapOnFailure snapshots the current in-memory databases before
	// loading, and restores them if the load fails partway through.
	SwapOnFailure SwapPolicy = iota
	// EmptyUpFront loads straight into the current databases, which the
	// caller has already emptied (LoadSnapshot does not clear them), trading
	// the rollback safety net for not holding two copies in memory at
	// once.
	EmptyUpFront
)

// LoadSnapshotFromDisk reads a length-prefixed RDB body ("$<length>\r\n"
// already consumed by the caller) from r, up to its EOF opcode and CRC64
// trailer, and loads it into reg, per the "to disk" reception mode: the caller is expected to
// have already streamed these bytes to a temp file, fsync'd, and
// renamed it into place before calling this to actually parse it (this
// function only performs the RDB decode + load step).
func LoadSnapshotFromDisk(r io.Reader, reg *keyspace.Registry) error {
	dec := rdbformat.NewDecoder(r)
	op, err := dec.ReadHeader()
	if err != nil {
		return err
	}
	return dec.LoadInto(reg, op)
}

// LoadSnapshotDiskless reads a diskless ("$EOF:<tag>") transfer directly
// from r into reg, using a rolling window to detect the trailing repeat
// of tag without buffering the whole stream.
func LoadSnapshotDiskless(r io.Reader, tag eofmark.Tag, reg *keyspace.Registry) error {
	dec := rdbformat.NewDecoder(r)
	op, err := dec.ReadHeader()
	if err != nil {
		return err
	}
	return dec.LoadStreaming(reg, tag, op)
}

// LoadSnapshot applies policy around LoadSnapshotFromDisk /
// LoadSnapshotDiskless: under SwapOnFailure it loads into a fresh
// Registry and only swaps it into *dst on success, so a failed or
// partial transfer leaves the existing dataset untouched; under
// EmptyUpFront it loads directly into *dst, which the caller is
// expected to have already reset to empty databases.
func LoadSnapshot(policy SwapPolicy, dst **keyspace.Registry, dbnum, lazyFreeBuf int, load func(*keyspace.Registry) error) error {
	switch policy {
	case SwapOnFailure:
		fresh := keyspace.NewRegistry(dbnum, lazyFreeBuf)
		if err := load(fresh); err != nil {
			return err
		}
		*dst = fresh
		return nil
	default: // EmptyUpFront
		return load(*dst)
	}
}
