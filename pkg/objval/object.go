// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package objval

import "sync/atomic"

// Sentinel reference-count values. Reference count is >= 1 for live
// objects, except for the sentinel values SHARED and STATIC below.
const (
	refCountShared int32 = -1
	refCountStatic int32 = -2
)

// repr is the owned representation backing an Object. Each concrete
// encoding (stringRepr, ziplistRepr, quicklistRepr, ...) implements this so Object can
// release it generically on DecrRef.
type repr interface {
	// length returns the element/byte count of the representation, used
	// by Object.Len.
	length() int
}

// Object is the tagged-union runtime value backing every key.
//
// The (Type, Encoding) pair is always consistent (see ValidEncoding); a
// transition via TryEncodeString or an explicit Set* swaps both fields and the
// owned repr atomically from the caller's perspective. Callers never
// observe a half-transitioned Object because transitions happen under
// single-threaded keyspace execution.
type Object struct {
	typ      Type
	encoding Encoding
	refcount int32
	lru      uint32 // last-access clock, ticks defined by the caller (e.g. unix seconds)
	repr     repr
}

// New creates an Object of the given type wrapping repr, owning one
// reference.
func New(t Type, enc Encoding, r repr) *Object {
	if !ValidEncoding(t, enc) {
		panic(Error.New("invalid encoding %v for type %v", enc, t).Error())
	}
	return &Object{typ: t, encoding: enc, refcount: 1, repr: r}
}

// NewShared wraps repr as an immortal, shared Object: IncrRef/DecrRef are
// no-ops and it is never released.
func NewShared(t Type, enc Encoding, r repr) *Object {
	if !ValidEncoding(t, enc) {
		panic(Error.New("invalid encoding %v for type %v", enc, t).Error())
	}
	return &Object{typ: t, encoding: enc, refcount: refCountShared, repr: r}
}

// NewStatic wraps repr as a stack-allocated Object: it must never be
// retained past its caller's scope, and DecrRef on it panics.
func NewStatic(t Type, enc Encoding, r repr) *Object {
	if !ValidEncoding(t, enc) {
		panic(Error.New("invalid encoding %v for type %v", enc, t).Error())
	}
	return &Object{typ: t, encoding: enc, refcount: refCountStatic, repr: r}
}

// Type returns the logical type.
func (o *Object) Type() Type { return o.typ }

// Encoding returns the current encoding.
func (o *Object) Encoding() Encoding { return o.encoding }

// IsShared reports whether o is a shared, immortal object.
func (o *Object) IsShared() bool { return atomic.LoadInt32(&o.refcount) == refCountShared }

// IsStatic reports whether o is a stack-allocated object.
func (o *Object) IsStatic() bool { return atomic.LoadInt32(&o.refcount) == refCountStatic }

// RefCount returns the current reference count, or the sentinel value for
// SHARED/STATIC objects. This backs the OBJECT REFCOUNT command's
// sentinel reporting.
func (o *Object) RefCount() int32 { return atomic.LoadInt32(&o.refcount) }

// IncrRef increments the reference count. A no-op on SHARED/STATIC
// objects.
func (o *Object) IncrRef() {
	rc := atomic.LoadInt32(&o.refcount)
	if rc == refCountShared || rc == refCountStatic {
		return
	}
	atomic.AddInt32(&o.refcount, 1)
}

// DecrRef decrements the reference count, releasing the owned repr at
// zero. A no-op on SHARED objects. Calling DecrRef on a STATIC object
// panics: a stack-allocated object was never meant to be released.
func (o *Object) DecrRef() {
	rc := atomic.LoadInt32(&o.refcount)
	if rc == refCountShared {
		return
	}
	if rc == refCountStatic {
		panic(Error.New("decref of a STATIC object").Error())
	}
	n := atomic.AddInt32(&o.refcount, -1)
	if n < 0 {
		panic(Error.New("refcount underflow on %v object", o.typ).Error())
	}
	if n == 0 {
		o.repr = nil
	}
}

// Len reports the element count (list/set/hash/zset members, stream
// entries) or byte length (string) of the current representation.
func (o *Object) Len() int {
	if o.repr == nil {
		return 0
	}
	return o.repr.length()
}

// Repr returns the owned representation. Callers must type-assert to the
// concrete repr for the Object's Type/Encoding pair; a mismatched assert
// indicates a TypeMismatch bug above this layer.
func (o *Object) Repr() interface{} { return o.repr }

// setRepr swaps the owned representation and encoding atomically from the
// caller's perspective: a mem::replace-style owning swap rather than an
// in-place mutation of the old repr.
func (o *Object) setRepr(enc Encoding, r repr) {
	if !ValidEncoding(o.typ, enc) {
		panic(Error.New("invalid encoding %v for type %v", enc, o.typ).Error())
	}
	o.encoding = enc
	o.repr = r
}

// Touch updates the last-access clock used by eviction policies. No-op
// for SHARED objects, which never participate in eviction accounting.
func (o *Object) Touch(clock uint32) {
	if o.IsShared() {
		return
	}
	o.lru = clock
}

// IdleTime returns clock-o.lru, the value backing OBJECT IDLETIME.
func (o *Object) IdleTime(clock uint32) uint32 {
	if clock < o.lru {
		return 0
	}
	return clock - o.lru
}
