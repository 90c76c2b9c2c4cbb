// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval

import (
	"strconv"
	"strings"
)

// CompareLocale compares two TypeString objects with strings.Compare on
// their raw bytes. It applies no locale collation: the result is plain
// byte order, the same as a binary comparison.
func CompareLocale(a, b *Object) (int, error) {
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

// AsInteger reads o (a TypeString) as an int64, matching the public
// contract's "read-as-integer" operation.
func AsInteger(o *Object) (int64, error) {
	n, ok := StringInt(o)
	if !ok {
		return 0, Error.New("value is not an integer or out of range")
	}
	return n, nil
}

// AsDouble reads o (a TypeString) as a float64, matching the public
// contract's "read-as-double" operation.
func AsDouble(o *Object) (float64, error) {
	b, err := StringBytes(o)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, Error.New("value is not a valid float")
	}
	return f, nil
}

// AsLongDouble reads o as the widest floating point precision Go offers.
// Go has no native long double; float64 is used and the operation is
// named separately from AsDouble only to preserve the public contract's
// vocabulary ("read-as-long-double") for callers coming from the wider
// command surface (e.g. INCRBYFLOAT wants the widest precision
// available).
func AsLongDouble(o *Object) (float64, error) {
	return AsDouble(o)
}

// Duplicate performs a deep copy of o's owned representation into a new,
// independently-refcounted Object. Duplicating a SHARED object still
// returns an owned (refcount 1) copy -- the public contract's "duplicate"
// operation is how callers obtain a mutable value derived from a shared
// one (copy-on-write).
func Duplicate(o *Object) *Object {
	switch o.Type() {
	case TypeString:
		b, _ := StringBytes(o)
		return NewStringFromBytes(b)
	case TypeList:
		vals, _ := ListValues(o)
		dup := NewList()
		for _, v := range vals {
			_ = ListPush(dup, v)
		}
		return dup
	case TypeSet:
		vals, _ := SetMembers(o)
		dup := NewSet()
		for _, v := range vals {
			_, _ = SetAdd(dup, v)
		}
		return dup
	case TypeHash:
		entries, _ := HashEntries(o)
		dup := NewHash()
		for _, e := range entries {
			_, _ = HashSet(dup, e[0], e[1])
		}
		return dup
	case TypeSortedSet:
		members, scores, _ := SortedSetEntries(o)
		dup := NewSortedSet()
		for i, m := range members {
			_, _ = SortedSetAdd(dup, m, scores[i])
		}
		return dup
	default:
		panic(Error.New("Duplicate unsupported for type %v", o.Type()).Error())
	}
}
