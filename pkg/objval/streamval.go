// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval

import "sort"

// StreamID is a (milliseconds, sequence) stream entry identifier.
type StreamID struct {
	Ms  uint64
	Seq uint64
}

// Less reports whether id sorts before other.
func (id StreamID) Less(other StreamID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

// StreamEntry is one appended record: an id and an ordered field/value
// list (streams don't dedupe fields within an entry).
type StreamEntry struct {
	ID     StreamID
	Fields [][2][]byte
}

// StreamGroup is consumer-group metadata: name, last delivered id, the
// group's global pending-entry list, and per-consumer PELs.
type StreamGroup struct {
	Name        string
	LastID      StreamID
	PendingList []StreamID          // global pending-entry list
	Consumers   map[string][]StreamID // per-consumer PELs
}

// streamRepr backs TypeStream/EncodingStream. The real engine shards
// entries across radix-tree-indexed listpacks for cache locality; this
// repr keeps the logical ordered sequence, and pkg/rdbformat writes it
// as one flat entry list without listpack-shaped grouping.
type streamRepr struct {
	entries    []StreamEntry // kept sorted by ID
	lastID     StreamID
	maxDeleted StreamID
	entriesAdded uint64
	groups     map[string]*StreamGroup
}

func (s *streamRepr) length() int { return len(s.entries) }

// NewStream creates an empty TypeStream object.
func NewStream() *Object {
	return New(TypeStream, EncodingStream, &streamRepr{groups: make(map[string]*StreamGroup)})
}

// StreamAppend appends entry with an auto-assigned ID strictly greater
// than the stream's current last ID, mirroring XADD's "*" behavior.
func StreamAppend(o *Object, ms uint64, fields [][2][]byte) (StreamID, error) {
	if o.Type() != TypeStream {
		return StreamID{}, ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	id := StreamID{Ms: ms, Seq: 0}
	if ms == s.lastID.Ms {
		id.Seq = s.lastID.Seq + 1
	} else if ms < s.lastID.Ms {
		// clock regression: keep monotonicity by bumping the sequence
		// within the same ms as the last ID, matching Redis's stream ID
		// monotonicity invariant.
		id = StreamID{Ms: s.lastID.Ms, Seq: s.lastID.Seq + 1}
	}
	cp := make([][2][]byte, len(fields))
	for i, f := range fields {
		cp[i] = [2][]byte{append([]byte(nil), f[0]...), append([]byte(nil), f[1]...)}
	}
	s.entries = append(s.entries, StreamEntry{ID: id, Fields: cp})
	s.lastID = id
	s.entriesAdded++
	return id, nil
}

// StreamEntries returns all entries in ID order.
func StreamEntries(o *Object) ([]StreamEntry, error) {
	if o.Type() != TypeStream {
		return nil, ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	return append([]StreamEntry(nil), s.entries...), nil
}

// StreamLastID returns the stream's last assigned ID.
func StreamLastID(o *Object) (StreamID, error) {
	if o.Type() != TypeStream {
		return StreamID{}, ErrTypeMismatch
	}
	return o.repr.(*streamRepr).lastID, nil
}

// StreamEntriesAdded returns the stream's total lifetime entry count,
// independent of deletions/trims, matching the RDB payload's "total
// entry count" field semantics.
func StreamEntriesAdded(o *Object) (uint64, error) {
	if o.Type() != TypeStream {
		return 0, ErrTypeMismatch
	}
	return o.repr.(*streamRepr).entriesAdded, nil
}

// StreamGroupCreate registers a consumer group at lastID.
func StreamGroupCreate(o *Object, name string, lastID StreamID) error {
	if o.Type() != TypeStream {
		return ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	s.groups[name] = &StreamGroup{Name: name, LastID: lastID, Consumers: make(map[string][]StreamID)}
	return nil
}

// StreamGroups returns all consumer groups, sorted by name for
// deterministic RDB output.
func StreamGroups(o *Object) ([]*StreamGroup, error) {
	if o.Type() != TypeStream {
		return nil, ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	names := make([]string, 0, len(s.groups))
	for n := range s.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*StreamGroup, len(names))
	for i, n := range names {
		out[i] = s.groups[n]
	}
	return out, nil
}

// StreamLoadEntry appends entry verbatim, bypassing the auto-ID
// assignment StreamAppend does. Used by RDB loading to reconstruct a
// stream's exact recorded entries and metadata.
func StreamLoadEntry(o *Object, entry StreamEntry) error {
	if o.Type() != TypeStream {
		return ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	s.entries = append(s.entries, entry)
	if s.lastID.Less(entry.ID) {
		s.lastID = entry.ID
	}
	return nil
}

// StreamSetMeta sets the bookkeeping fields an RDB payload carries
// alongside the entry list (last id, max deleted id, lifetime add
// count) that aren't otherwise derivable from the entries themselves.
func StreamSetMeta(o *Object, lastID, maxDeleted StreamID, entriesAdded uint64) error {
	if o.Type() != TypeStream {
		return ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	s.lastID = lastID
	s.maxDeleted = maxDeleted
	s.entriesAdded = entriesAdded
	return nil
}

// StreamMaxDeletedID returns the highest-ID entry ever deleted from the
// stream (XDEL's tombstone watermark), used by RDB payload writers.
func StreamMaxDeletedID(o *Object) (StreamID, error) {
	if o.Type() != TypeStream {
		return StreamID{}, ErrTypeMismatch
	}
	return o.repr.(*streamRepr).maxDeleted, nil
}

// StreamGroupLoad registers a consumer group with its full recorded
// state (pending list and per-consumer PELs), as read back from an RDB
// payload.
func StreamGroupLoad(o *Object, g *StreamGroup) error {
	if o.Type() != TypeStream {
		return ErrTypeMismatch
	}
	s := o.repr.(*streamRepr)
	if s.groups == nil {
		s.groups = make(map[string]*StreamGroup)
	}
	s.groups[g.Name] = g
	return nil
}
