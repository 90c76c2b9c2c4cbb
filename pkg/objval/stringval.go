// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval

import (
	"strconv"
	"strings"
)

// EmbstrMaxLen is the maximum byte length eligible for EMBSTR.
const EmbstrMaxLen = 44

// rawSlackFraction is the threshold above which TrimExcess reclaims a
// RAW string's over-reserved capacity.
const rawSlackFraction = 0.10

// stringRepr is the repr for TypeString in any of its three encodings.
//
// Only one of the fields is meaningful at a time, selected by the
// Object's Encoding: EncodingInt -> i, EncodingEmbstr/EncodingRaw -> b.
// cap tracks the originally reserved capacity for RAW so TrimExcess can
// detect slack.
type stringRepr struct {
	i   int64
	b   []byte
	cap int
}

func (s *stringRepr) length() int {
	if s == nil {
		return 0
	}
	if s.b != nil {
		return len(s.b)
	}
	return len(strconv.FormatInt(s.i, 10))
}

// NewStringFromBytes creates a new TypeString Object in RAW encoding from
// b, then immediately applies TryEncodeString, since newly created string
// values are always offered the chance to downgrade to INT or EMBSTR.
func NewStringFromBytes(b []byte) *Object {
	cp := make([]byte, len(b))
	copy(cp, b)
	o := New(TypeString, EncodingRaw, &stringRepr{b: cp, cap: len(cp)})
	TryEncodeString(o)
	return o
}

// NewStringFromInt creates a new TypeString Object in INT encoding
// directly, without consulting the shared pool; see Pool.GetOrCreateInt
// for the pool-aware constructor used by command implementations.
func NewStringFromInt(n int64) *Object {
	return New(TypeString, EncodingInt, &stringRepr{i: n})
}

// StringBytes returns the byte-string value of o regardless of its
// current string encoding. Returns ErrTypeMismatch if o is not a
// TypeString.
func StringBytes(o *Object) ([]byte, error) {
	if o.Type() != TypeString {
		return nil, ErrTypeMismatch
	}
	s := o.repr.(*stringRepr)
	if s.b != nil {
		return s.b, nil
	}
	return []byte(strconv.FormatInt(s.i, 10)), nil
}

// StringInt returns the integer value of o if its encoding is INT, or
// attempts to parse the RAW/EMBSTR bytes as a base-10 integer.
func StringInt(o *Object) (int64, bool) {
	if o.Type() != TypeString {
		return 0, false
	}
	s := o.repr.(*stringRepr)
	if o.Encoding() == EncodingInt {
		return s.i, true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(s.b)), 10, 64)
	if err != nil {
		return 0, false
	}
	// Reject forms that don't round-trip byte-for-byte (leading zeros,
	// "+5", whitespace) -- real INT encoding only ever held canonical
	// digit strings.
	if strconv.FormatInt(n, 10) != string(s.b) {
		return 0, false
	}
	return n, true
}

// TryEncodeString applies the string try-encode policy: integer-parseable
// -> INT, else <=44 bytes -> EMBSTR, else trim excess reserved bytes if
// slack exceeds 10%. It mutates o in place.
func TryEncodeString(o *Object) {
	if o.Type() != TypeString {
		panic(Error.New("TryEncodeString on non-string object").Error())
	}
	if o.IsShared() || o.IsStatic() {
		return
	}
	s := o.repr.(*stringRepr)
	if o.Encoding() == EncodingInt {
		return
	}
	if n, ok := canonicalInt(s.b); ok {
		o.setRepr(EncodingInt, &stringRepr{i: n})
		return
	}
	if len(s.b) <= EmbstrMaxLen {
		b := make([]byte, len(s.b))
		copy(b, s.b)
		o.setRepr(EncodingEmbstr, &stringRepr{b: b, cap: len(b)})
		return
	}
	TrimExcess(o)
}

// canonicalInt reports whether b is the canonical base-10 representation
// of an int64 (no leading zeros, no leading '+', optional leading '-').
func canonicalInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return n, true
}

// TrimExcess releases slack capacity on a RAW string if it exceeds the
// 10% threshold. No-op for other encodings.
func TrimExcess(o *Object) {
	if o.Type() != TypeString || o.Encoding() != EncodingRaw {
		return
	}
	s := o.repr.(*stringRepr)
	if s.cap == 0 {
		return
	}
	slack := float64(s.cap-len(s.b)) / float64(s.cap)
	if slack <= rawSlackFraction {
		return
	}
	b := make([]byte, len(s.b))
	copy(b, s.b)
	o.setRepr(EncodingRaw, &stringRepr{b: b, cap: len(b)})
}

// AppendString appends suffix to o's value, forcing RAW encoding (a
// string that has grown past a single creation step can no longer be
// shared or treated as immutable). Panics if o is Shared.
func AppendString(o *Object, suffix []byte) error {
	if o.Type() != TypeString {
		return ErrTypeMismatch
	}
	if o.IsShared() {
		panic(Error.New("AppendString on a SHARED object").Error())
	}
	cur, err := StringBytes(o)
	if err != nil {
		return err
	}
	need := len(cur) + len(suffix)
	buf := make([]byte, need, need*2)
	copy(buf, cur)
	copy(buf[len(cur):], suffix)
	o.setRepr(EncodingRaw, &stringRepr{b: buf[:need], cap: cap(buf)})
	return nil
}

// CompareBinary compares two TypeString objects byte-for-byte.
func CompareBinary(a, b *Object) (int, error) {
	ab, err := StringBytes(a)
	if err != nil {
		return 0, err
	}
	bb, err := StringBytes(b)
	if err != nil {
		return 0, err
	}
	return strings.Compare(string(ab), string(bb)), nil
}
