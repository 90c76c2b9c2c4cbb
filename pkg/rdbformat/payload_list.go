// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"io"

	"storj.io/kvcore/pkg/objval"
)

// listNodeSize chunks a list's entries into this many entries per
// QUICKLIST node when writing: a length-encoded node count, then for
// each node a length-prefixed ZIPLIST-style blob.
const listNodeSize = 128

func writeListPayload(w io.Writer, o *objval.Object) error {
	values, err := objval.ListValues(o)
	if err != nil {
		return err
	}
	var nodes [][][]byte
	for i := 0; i < len(values); i += listNodeSize {
		end := i + listNodeSize
		if end > len(values) {
			end = len(values)
		}
		nodes = append(nodes, values[i:end])
	}
	if len(nodes) == 0 {
		nodes = [][][]byte{{}}
	}
	if err := WriteLength(w, uint64(len(nodes))); err != nil {
		return err
	}
	for _, node := range nodes {
		if err := writeChunkBlob(w, node); err != nil {
			return err
		}
	}
	return nil
}

func readListPayload(r io.Reader) (*objval.Object, error) {
	nodeCount, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	list := objval.NewList()
	for i := uint64(0); i < nodeCount; i++ {
		entries, err := readChunkBlob(r)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if err := objval.ListPush(list, e); err != nil {
				return nil, err
			}
		}
	}
	return list, nil
}
