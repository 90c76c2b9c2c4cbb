// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"io"
	"strconv"

	"storj.io/kvcore/pkg/objval"
)

// writeZsetZiplistPayload writes the ZIPLIST form as a single
// length-prefixed (possibly LZF-compressed) blob of interleaved
// member/score-as-string entries.
func writeZsetZiplistPayload(w io.Writer, o *objval.Object) error {
	members, scores, err := objval.SortedSetEntries(o)
	if err != nil {
		return err
	}
	flat := make([][]byte, 0, len(members)*2)
	for i, m := range members {
		flat = append(flat, []byte(m), []byte(strconv.FormatFloat(scores[i], 'g', 17, 64)))
	}
	return writeChunkBlob(w, flat)
}

func readZsetZiplistPayload(r io.Reader) (*objval.Object, error) {
	flat, err := readChunkBlob(r)
	if err != nil {
		return nil, err
	}
	z := objval.NewSortedSet()
	for i := 0; i+1 < len(flat); i += 2 {
		score, err := strconv.ParseFloat(string(flat[i+1]), 64)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if _, err := objval.SortedSetAdd(z, string(flat[i]), score); err != nil {
			return nil, err
		}
	}
	return z, nil
}

// writeZsetSkiplistPayload writes the SKIPLIST form as a plain count
// followed by (member, binary-double score) pairs.
func writeZsetSkiplistPayload(w io.Writer, o *objval.Object) error {
	members, scores, err := objval.SortedSetEntries(o)
	if err != nil {
		return err
	}
	if err := WriteLength(w, uint64(len(members))); err != nil {
		return err
	}
	for i, m := range members {
		if err := writeRDBString(w, []byte(m)); err != nil {
			return err
		}
		if err := WriteBinaryDouble(w, scores[i]); err != nil {
			return err
		}
	}
	return nil
}

func readZsetSkiplistPayload(r io.Reader) (*objval.Object, error) {
	count, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	z := objval.NewSortedSet()
	for i := uint64(0); i < count; i++ {
		member, err := readRDBString(r)
		if err != nil {
			return nil, err
		}
		score, err := ReadBinaryDouble(r)
		if err != nil {
			return nil, err
		}
		if _, err := objval.SortedSetAdd(z, string(member), score); err != nil {
			return nil, err
		}
	}
	return z, nil
}
