// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"io"

	"storj.io/kvcore/pkg/objval"
)

func writeHashHTPayload(w io.Writer, o *objval.Object) error {
	entries, err := objval.HashEntries(o)
	if err != nil {
		return err
	}
	if err := WriteLength(w, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeRDBString(w, e[0]); err != nil {
			return err
		}
		if err := writeRDBString(w, e[1]); err != nil {
			return err
		}
	}
	return nil
}

func readHashHTPayload(r io.Reader) (*objval.Object, error) {
	count, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	h := objval.NewHash()
	for i := uint64(0); i < count; i++ {
		field, err := readRDBString(r)
		if err != nil {
			return nil, err
		}
		value, err := readRDBString(r)
		if err != nil {
			return nil, err
		}
		if _, err := objval.HashSet(h, field, value); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// writeHashZiplistPayload writes the ZIPLIST form as a single
// length-prefixed (possibly LZF-compressed) blob of interleaved
// field/value entries.
func writeHashZiplistPayload(w io.Writer, o *objval.Object) error {
	entries, err := objval.HashEntries(o)
	if err != nil {
		return err
	}
	flat := make([][]byte, 0, len(entries)*2)
	for _, e := range entries {
		flat = append(flat, e[0], e[1])
	}
	return writeChunkBlob(w, flat)
}

func readHashZiplistPayload(r io.Reader) (*objval.Object, error) {
	flat, err := readChunkBlob(r)
	if err != nil {
		return nil, err
	}
	h := objval.NewHash()
	for i := 0; i+1 < len(flat); i += 2 {
		if _, err := objval.HashSet(h, flat[i], flat[i+1]); err != nil {
			return nil, err
		}
	}
	return h, nil
}
