// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package keyspace implements the per-database key/value mapping: a
// primary dict, a separate expires map, and the lazy + periodic
// expiration sweeps that keep them consistent.
package keyspace

import (
	"math/rand"

	"github.com/zeebo/errs"

	"storj.io/kvcore/pkg/objval"
)

// Error is the class for all keyspace errors.
var Error = errs.Class("keyspace")

// ErrNoSuchKey is returned by operations that require an existing key.
var ErrNoSuchKey = Error.New("no such key")

// nowFunc is overridable in tests to control expiration timing
// deterministically without sleeping.
var nowFunc = defaultNow

// DB is one numbered database.
//
// Iteration stability: keys is a slice of the live keys kept in sync
// with dict via keyIdx (a delete moves the last key into the freed slot,
// so the slice does not keep insertion order); a callback that mutates
// the DB mid-iteration (deleting or adding keys) cannot invalidate the snapshot ForEach took,
// because ForEach iterates over a copy of the key list taken at call
// time.
type DB struct {
	index int

	dict    map[string]*objval.Object
	expires map[string]int64 // key -> absolute expiry, ms since epoch
	keys    []string         // live keys, for RandomKey / ForEach
	keyIdx  map[string]int   // key -> index into keys

	notifier notifier
	lazyFree *LazyFreeQueue
}

// NewDB creates an empty database at the given index.
func NewDB(index int, lazyFree *LazyFreeQueue) *DB {
	return &DB{
		index:   index,
		dict:    make(map[string]*objval.Object),
		expires: make(map[string]int64),
		keyIdx:  make(map[string]int),
		lazyFree: lazyFree,
	}
}

// Index returns the database's numeric index.
func (db *DB) Index() int { return db.index }

// Subscribe registers s to receive every Event this DB emits.
func (db *DB) Subscribe(s Subscriber) { db.notifier.Subscribe(s) }

// Len returns the number of stored keys, without evaluating lazy
// expiration, so keys that have expired but not yet been removed are
// counted. ExpireCycle samples only a bounded number of keys per call and
// so does not guarantee an exact count afterwards.
func (db *DB) Len() int { return len(db.dict) }

// Put inserts or overwrites key with value, clearing any prior TTL
// (matching SET's default semantics; callers wanting to preserve TTL
// should call SetExpire again afterward, as KEEPTTL does at the command
// layer).
func (db *DB) Put(key string, value *objval.Object) {
	old, exists := db.dict[key]
	if !exists {
		db.keyIdx[key] = len(db.keys)
		db.keys = append(db.keys, key)
	}
	db.dict[key] = value
	delete(db.expires, key)
	if exists {
		if db.lazyFree != nil {
			db.lazyFree.Enqueue(old)
		} else {
			old.DecrRef()
		}
	}
	db.notifier.emit(Event{Op: EventSet, Key: key, DB: db.index})
}

// Get returns the value for key, first evaluating lazy expiration: an
// expired key is deleted and reported absent.
func (db *DB) Get(key string) (*objval.Object, bool) {
	if db.expireIfNeeded(key) {
		return nil, false
	}
	v, ok := db.dict[key]
	return v, ok
}

// Exists reports whether key is present and not expired.
func (db *DB) Exists(key string) bool {
	_, ok := db.Get(key)
	return ok
}

// Delete removes key (and any TTL) from the database. Returns true if
// the key existed. The removed value's owned representation is released
// through the lazy-free queue when one is configured, and inline
// otherwise.
func (db *DB) Delete(key string) bool {
	v, ok := db.dict[key]
	if !ok {
		return false
	}
	db.removeKey(key)
	if db.lazyFree != nil {
		db.lazyFree.Enqueue(v)
	} else {
		v.DecrRef()
	}
	db.notifier.emit(Event{Op: EventDel, Key: key, DB: db.index})
	return true
}

func (db *DB) removeKey(key string) {
	delete(db.dict, key)
	delete(db.expires, key)
	if i, ok := db.keyIdx[key]; ok {
		last := len(db.keys) - 1
		db.keys[i] = db.keys[last]
		db.keyIdx[db.keys[i]] = i
		db.keys = db.keys[:last]
		delete(db.keyIdx, key)
	}
}

// RandomKey returns a uniformly random live key, evaluating lazy
// expiration on the candidate before returning it. Returns ("", false) on
// an empty database, or when 5 candidates in a row turned out expired.
func (db *DB) RandomKey() (string, bool) {
	for attempts := 0; attempts < 5 && len(db.keys) > 0; attempts++ {
		k := db.keys[rand.Intn(len(db.keys))] //nolint:gosec
		if !db.expireIfNeeded(k) {
			return k, true
		}
	}
	return "", false
}

// ForEach calls fn for every live key in key-slice order, snapshotting
// the key list first so concurrent-with-iteration mutation by fn cannot
// invalidate the traversal. fn may return false to stop early.
func (db *DB) ForEach(fn func(key string, value *objval.Object) bool) {
	snapshot := append([]string(nil), db.keys...)
	for _, k := range snapshot {
		v, ok := db.Get(k)
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

// DumpKeys returns a snapshot of all live key names, for RDB encoding and
// tests.
func (db *DB) DumpKeys() []string {
	out := make([]string, 0, len(db.keys))
	db.ForEach(func(key string, _ *objval.Object) bool {
		out = append(out, key)
		return true
	})
	return out
}
