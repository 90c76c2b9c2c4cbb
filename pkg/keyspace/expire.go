// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package keyspace

import (
	"math/rand"
	"time"
)

func defaultNow() int64 { return time.Now().UnixMilli() }

// SetExpire sets key's absolute expiration to atMillis (ms since epoch).
// Returns false if key does not exist. Invariant maintained: every key in
// expires also exists in dict.
func (db *DB) SetExpire(key string, atMillis int64) bool {
	if _, ok := db.dict[key]; !ok {
		return false
	}
	db.expires[key] = atMillis
	db.notifier.emit(Event{Op: EventExpire, Key: key, DB: db.index})
	return true
}

// GetExpire returns key's absolute expiration in ms, and whether it has
// one set.
func (db *DB) GetExpire(key string) (int64, bool) {
	at, ok := db.expires[key]
	return at, ok
}

// PersistExpire removes key's TTL, making it durable until explicitly
// deleted. Returns true if a TTL was present.
func (db *DB) PersistExpire(key string) bool {
	if _, ok := db.expires[key]; !ok {
		return false
	}
	delete(db.expires, key)
	return true
}

// expireIfNeeded deletes key if its TTL has passed as of nowFunc(), and
// reports whether it did so.
func (db *DB) expireIfNeeded(key string) bool {
	at, ok := db.expires[key]
	if !ok {
		return false
	}
	if nowFunc() < at {
		return false
	}
	v, existed := db.dict[key]
	db.removeKey(key)
	if existed {
		if db.lazyFree != nil {
			db.lazyFree.Enqueue(v)
		} else {
			v.DecrRef()
		}
	}
	db.notifier.emit(Event{Op: EventExpired, Key: key, DB: db.index})
	return true
}

// ExpireCycleSampleSize is the number of keys-with-TTL the periodic
// sampler examines per call, scanning a small random subset of keys with
// expirations to amortize cleanup.
const ExpireCycleSampleSize = 20

// ExpireCycle runs one round of the periodic expiration sampler: it
// examines up to ExpireCycleSampleSize random keys that carry a TTL and
// deletes any that have passed, returning the number actually expired.
// This is the background counterpart to the lazy, access-time check in
// Get/Exists/RandomKey.
func (db *DB) ExpireCycle() int {
	if len(db.expires) == 0 {
		return 0
	}
	candidates := make([]string, 0, len(db.expires))
	for k := range db.expires {
		candidates = append(candidates, k)
	}
	rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] }) //nolint:gosec

	n := ExpireCycleSampleSize
	if n > len(candidates) {
		n = len(candidates)
	}
	expired := 0
	for _, k := range candidates[:n] {
		if db.expireIfNeeded(k) {
			expired++
		}
	}
	return expired
}
