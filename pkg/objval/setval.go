// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval

import (
	"sort"
	"strconv"
)

// SetIntsetMaxEntries is the upgrade threshold for Set: a non-integer
// member, or exceeding the entry count, triggers INTSET -> HT.
// SetHTMaxValue is declared alongside it; no Set operation consults it.
const (
	SetIntsetMaxEntries = 512
	SetHTMaxValue       = 64
)

// intsetRepr backs TypeSet/EncodingIntset: a sorted array of distinct
// int64 members.
type intsetRepr struct {
	members []int64
}

func (s *intsetRepr) length() int { return len(s.members) }

func (s *intsetRepr) find(n int64) (int, bool) {
	i := sort.Search(len(s.members), func(i int) bool { return s.members[i] >= n })
	if i < len(s.members) && s.members[i] == n {
		return i, true
	}
	return i, false
}

func (s *intsetRepr) insert(n int64) bool {
	i, found := s.find(n)
	if found {
		return false
	}
	s.members = append(s.members, 0)
	copy(s.members[i+1:], s.members[i:])
	s.members[i] = n
	return true
}

// htSetRepr backs TypeSet/EncodingHT: an unordered member set.
type htSetRepr struct {
	members map[string]struct{}
}

func (h *htSetRepr) length() int { return len(h.members) }

// NewSet creates an empty TypeSet object in INTSET encoding.
func NewSet() *Object {
	return New(TypeSet, EncodingIntset, &intsetRepr{})
}

// SetMembers returns all members of o as byte strings, in an
// encoding-defined order (ascending numeric order for INTSET,
// unspecified for HT).
func SetMembers(o *Object) ([][]byte, error) {
	if o.Type() != TypeSet {
		return nil, ErrTypeMismatch
	}
	switch o.Encoding() {
	case EncodingIntset:
		s := o.repr.(*intsetRepr)
		out := make([][]byte, len(s.members))
		for i, n := range s.members {
			out[i] = []byte(formatInt(n))
		}
		return out, nil
	case EncodingHT:
		h := o.repr.(*htSetRepr)
		out := make([][]byte, 0, len(h.members))
		for m := range h.members {
			out = append(out, []byte(m))
		}
		return out, nil
	default:
		return nil, ErrTypeMismatch
	}
}

// SetAdd adds member to o, applying the INTSET -> HT transition policy.
// Returns true if member was newly added.
func SetAdd(o *Object, member []byte) (bool, error) {
	if o.Type() != TypeSet {
		return false, ErrTypeMismatch
	}
	switch o.Encoding() {
	case EncodingIntset:
		s := o.repr.(*intsetRepr)
		if n, ok := canonicalInt(member); ok {
			if len(s.members) >= SetIntsetMaxEntries {
				if _, found := s.find(n); found {
					return false, nil
				}
				setTransitionToHT(o, s, member)
				return true, nil
			}
			return s.insert(n), nil
		}
		setTransitionToHT(o, s, member)
		return true, nil
	case EncodingHT:
		h := o.repr.(*htSetRepr)
		if _, ok := h.members[string(member)]; ok {
			return false, nil
		}
		h.members[string(member)] = struct{}{}
		return true, nil
	default:
		return false, ErrTypeMismatch
	}
}

func setTransitionToHT(o *Object, s *intsetRepr, newMember []byte) {
	h := &htSetRepr{members: make(map[string]struct{}, len(s.members)+1)}
	for _, n := range s.members {
		h.members[formatInt(n)] = struct{}{}
	}
	h.members[string(newMember)] = struct{}{}
	o.setRepr(EncodingHT, h)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
