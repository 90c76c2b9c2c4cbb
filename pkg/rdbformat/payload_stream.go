// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"io"

	"storj.io/kvcore/pkg/objval"
)

// writeStreamPayload writes a stream as a flat sequence of entries
// (each keyed by its own id, rather than the real engine's radix tree of
// listpacks keyed by a shared master id -- see DESIGN.md), followed by
// the stream's bookkeeping fields and its consumer groups.
func writeStreamPayload(w io.Writer, o *objval.Object) error {
	entries, err := objval.StreamEntries(o)
	if err != nil {
		return err
	}
	if err := WriteLength(w, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeStreamID(w, e.ID); err != nil {
			return err
		}
		if err := WriteLength(w, uint64(len(e.Fields))); err != nil {
			return err
		}
		for _, f := range e.Fields {
			if err := writeRDBString(w, f[0]); err != nil {
				return err
			}
			if err := writeRDBString(w, f[1]); err != nil {
				return err
			}
		}
	}

	lastID, err := objval.StreamLastID(o)
	if err != nil {
		return err
	}
	if err := writeStreamID(w, lastID); err != nil {
		return err
	}
	maxDeleted, err := objval.StreamMaxDeletedID(o)
	if err != nil {
		return err
	}
	if err := writeStreamID(w, maxDeleted); err != nil {
		return err
	}
	entriesAdded, err := objval.StreamEntriesAdded(o)
	if err != nil {
		return err
	}
	if err := WriteLength(w, entriesAdded); err != nil {
		return err
	}

	groups, err := objval.StreamGroups(o)
	if err != nil {
		return err
	}
	if err := WriteLength(w, uint64(len(groups))); err != nil {
		return err
	}
	for _, g := range groups {
		if err := writeRDBString(w, []byte(g.Name)); err != nil {
			return err
		}
		if err := writeStreamID(w, g.LastID); err != nil {
			return err
		}
		if err := WriteLength(w, uint64(len(g.PendingList))); err != nil {
			return err
		}
		for _, id := range g.PendingList {
			if err := writeStreamID(w, id); err != nil {
				return err
			}
		}
		if err := WriteLength(w, uint64(len(g.Consumers))); err != nil {
			return err
		}
		for name, pel := range g.Consumers {
			if err := writeRDBString(w, []byte(name)); err != nil {
				return err
			}
			if err := WriteLength(w, uint64(len(pel))); err != nil {
				return err
			}
			for _, id := range pel {
				if err := writeStreamID(w, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func readStreamPayload(r io.Reader) (*objval.Object, error) {
	s := objval.NewStream()

	entryCount, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < entryCount; i++ {
		id, err := readStreamID(r)
		if err != nil {
			return nil, err
		}
		fieldCount, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}
		fields := make([][2][]byte, fieldCount)
		for j := uint64(0); j < fieldCount; j++ {
			field, err := readRDBString(r)
			if err != nil {
				return nil, err
			}
			value, err := readRDBString(r)
			if err != nil {
				return nil, err
			}
			fields[j] = [2][]byte{field, value}
		}
		if err := objval.StreamLoadEntry(s, objval.StreamEntry{ID: id, Fields: fields}); err != nil {
			return nil, err
		}
	}

	lastID, err := readStreamID(r)
	if err != nil {
		return nil, err
	}
	maxDeleted, err := readStreamID(r)
	if err != nil {
		return nil, err
	}
	entriesAdded, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	if err := objval.StreamSetMeta(s, lastID, maxDeleted, entriesAdded); err != nil {
		return nil, err
	}

	groupCount, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < groupCount; i++ {
		name, err := readRDBString(r)
		if err != nil {
			return nil, err
		}
		groupLastID, err := readStreamID(r)
		if err != nil {
			return nil, err
		}
		pendingCount, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}
		pending := make([]objval.StreamID, pendingCount)
		for j := uint64(0); j < pendingCount; j++ {
			id, err := readStreamID(r)
			if err != nil {
				return nil, err
			}
			pending[j] = id
		}
		consumerCount, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}
		consumers := make(map[string][]objval.StreamID, consumerCount)
		for j := uint64(0); j < consumerCount; j++ {
			cname, err := readRDBString(r)
			if err != nil {
				return nil, err
			}
			pelCount, _, _, err := ReadLength(r)
			if err != nil {
				return nil, err
			}
			pel := make([]objval.StreamID, pelCount)
			for k := uint64(0); k < pelCount; k++ {
				id, err := readStreamID(r)
				if err != nil {
					return nil, err
				}
				pel[k] = id
			}
			consumers[string(cname)] = pel
		}
		if err := objval.StreamGroupLoad(s, &objval.StreamGroup{
			Name:        string(name),
			LastID:      groupLastID,
			PendingList: pending,
			Consumers:   consumers,
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func writeStreamID(w io.Writer, id objval.StreamID) error {
	if err := WriteLength(w, id.Ms); err != nil {
		return err
	}
	return WriteLength(w, id.Seq)
}

func readStreamID(r io.Reader) (objval.StreamID, error) {
	ms, _, _, err := ReadLength(r)
	if err != nil {
		return objval.StreamID{}, err
	}
	seq, _, _, err := ReadLength(r)
	if err != nil {
		return objval.StreamID{}, err
	}
	return objval.StreamID{Ms: ms, Seq: seq}, nil
}
