// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package objval implements the tagged-union value object model: a
// logical type paired with one of several in-memory encodings for that
// type, reference counted, with a shared pool for small integers.
package objval

import "github.com/zeebo/errs"

// Error is the class for all objval errors.
var Error = errs.Class("objval")

// ErrTypeMismatch is returned when an operation expects a different
// logical type than the one stored in the Object.
var ErrTypeMismatch = Error.New("type mismatch")

// Type is the logical type of a value object.
type Type uint8

// Logical types.
const (
	TypeString Type = iota
	TypeList
	TypeSet
	TypeHash
	TypeSortedSet
	TypeStream
	TypeModule
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	case TypeSortedSet:
		return "zset"
	case TypeStream:
		return "stream"
	case TypeModule:
		return "module"
	default:
		return "unknown"
	}
}

// Encoding is the concrete in-memory representation backing a Type.
type Encoding uint8

// Encodings, the concrete representations each Type may take.
const (
	EncodingInt Encoding = iota
	EncodingEmbstr
	EncodingRaw
	EncodingZiplist
	EncodingQuicklist
	EncodingIntset
	EncodingHT
	EncodingSkiplist
	EncodingStream
)

// String implements fmt.Stringer.
func (e Encoding) String() string {
	switch e {
	case EncodingInt:
		return "int"
	case EncodingEmbstr:
		return "embstr"
	case EncodingRaw:
		return "raw"
	case EncodingZiplist:
		return "ziplist"
	case EncodingQuicklist:
		return "quicklist"
	case EncodingIntset:
		return "intset"
	case EncodingHT:
		return "hashtable"
	case EncodingSkiplist:
		return "skiplist"
	case EncodingStream:
		return "stream"
	default:
		return "unknown"
	}
}

// validEncodings enumerates, per Type, the Encodings it may take.
var validEncodings = map[Type]map[Encoding]bool{
	TypeString:    {EncodingInt: true, EncodingEmbstr: true, EncodingRaw: true},
	TypeList:      {EncodingZiplist: true, EncodingQuicklist: true},
	TypeSet:       {EncodingIntset: true, EncodingHT: true},
	TypeHash:      {EncodingZiplist: true, EncodingHT: true},
	TypeSortedSet: {EncodingZiplist: true, EncodingSkiplist: true},
	TypeStream:    {EncodingStream: true},
}

// ValidEncoding reports whether enc is a legal encoding for t.
func ValidEncoding(t Type, enc Encoding) bool {
	set, ok := validEncodings[t]
	if !ok {
		return false
	}
	return set[enc]
}
