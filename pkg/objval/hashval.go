// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval

// HashZiplistMaxEntries and HashZiplistMaxValue are the upgrade
// thresholds for Hash: ZIPLIST -> HT.
const (
	HashZiplistMaxEntries = 128
	HashZiplistMaxValue   = 64
)

// hashFieldValue is a field/value pair preserving insertion order, used
// by both the ZIPLIST and HT hash reprs -- HT here is "hash table" in the
// logical-type sense but keeps insertion order like Go's map iteration
// does not guarantee, so an explicit slice is used to keep hash field
// iteration order stable.
type hashFieldValue struct {
	field, value []byte
}

// hashRepr backs TypeHash in either encoding. ZIPLIST and HT differ only
// in whether idx is populated (HT) for O(1) lookup; both keep insertion
// order in entries.
type hashRepr struct {
	entries []hashFieldValue
	idx     map[string]int // field -> index into entries; nil for ZIPLIST
}

func (h *hashRepr) length() int { return len(h.entries) }

func (h *hashRepr) find(field []byte) int {
	if h.idx != nil {
		if i, ok := h.idx[string(field)]; ok {
			return i
		}
		return -1
	}
	for i, e := range h.entries {
		if string(e.field) == string(field) {
			return i
		}
	}
	return -1
}

// NewHash creates an empty TypeHash object in ZIPLIST encoding.
func NewHash() *Object {
	return New(TypeHash, EncodingZiplist, &hashRepr{})
}

// HashGet returns the value for field, and whether it was present.
func HashGet(o *Object, field []byte) ([]byte, bool, error) {
	if o.Type() != TypeHash {
		return nil, false, ErrTypeMismatch
	}
	h := o.repr.(*hashRepr)
	i := h.find(field)
	if i < 0 {
		return nil, false, nil
	}
	return h.entries[i].value, true, nil
}

// HashEntries returns all field/value pairs in insertion order.
func HashEntries(o *Object) ([][2][]byte, error) {
	if o.Type() != TypeHash {
		return nil, ErrTypeMismatch
	}
	h := o.repr.(*hashRepr)
	out := make([][2][]byte, len(h.entries))
	for i, e := range h.entries {
		out[i] = [2][]byte{e.field, e.value}
	}
	return out, nil
}

// HashSet sets field=value on o, applying the ZIPLIST -> HT transition
// policy. Returns true if field was newly created.
func HashSet(o *Object, field, value []byte) (bool, error) {
	if o.Type() != TypeHash {
		return false, ErrTypeMismatch
	}
	h := o.repr.(*hashRepr)
	f := append([]byte(nil), field...)
	v := append([]byte(nil), value...)

	if i := h.find(f); i >= 0 {
		h.entries[i].value = v
		return false, nil
	}

	h.entries = append(h.entries, hashFieldValue{field: f, value: v})
	if h.idx != nil {
		h.idx[string(f)] = len(h.entries) - 1
	}

	if o.Encoding() == EncodingZiplist &&
		(len(h.entries) > HashZiplistMaxEntries || len(f) > HashZiplistMaxValue || len(v) > HashZiplistMaxValue) {
		hashTransitionToHT(o, h)
	}
	return true, nil
}

func hashTransitionToHT(o *Object, h *hashRepr) {
	idx := make(map[string]int, len(h.entries))
	for i, e := range h.entries {
		idx[string(e.field)] = i
	}
	h.idx = idx
	o.setRepr(EncodingHT, h)
}
