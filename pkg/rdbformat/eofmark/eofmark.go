// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package eofmark implements the diskless-transfer EOF sentinel framing:
// a 40-byte random tag written immediately before the RDB body and
// repeated immediately after; the reader detects end-of-body by matching
// the trailing 40 bytes against the prefix via a rolling window.
package eofmark

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/zeebo/errs"
)

// Error is the class for all eofmark errors.
var Error = errs.Class("eofmark")

// TagLen is the fixed length of the EOF sentinel tag.
const TagLen = 40

// Tag is a 40-byte random EOF sentinel: 20 random bytes hex-encoded into
// exactly 40 ASCII hex characters.
type Tag [TagLen]byte

// NewTag generates a fresh random tag using crypto/rand (see also
// storj.io/kvcore/pkg/replid's random-ID generation). A fresh tag is
// sampled per transfer so a replica can never mistake an old tag
// lingering in a stale buffer for the current transfer's sentinel.
func NewTag() Tag {
	var raw [TagLen / 2]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(Error.Wrap(err).Error())
	}
	var t Tag
	hex.Encode(t[:], raw[:])
	return t
}

// ParseTag validates that b is a well-formed 40-byte tag and returns it.
func ParseTag(b []byte) (Tag, error) {
	var t Tag
	if len(b) != TagLen {
		return t, Error.New("tag must be %d bytes, got %d", TagLen, len(b))
	}
	copy(t[:], b)
	return t, nil
}

// Window is a rolling TagLen-byte buffer used by a streaming reader to
// detect the trailing copy of the tag without buffering the whole
// stream. Feed each byte of the incoming stream to Push; once Matches
// returns true for the expected tag, the body ended exactly TagLen bytes
// ago.
type Window struct {
	buf   [TagLen]byte
	filled int
	pos   int
}

// Push appends one byte to the rolling window.
func (w *Window) Push(b byte) {
	w.buf[w.pos] = b
	w.pos = (w.pos + 1) % TagLen
	if w.filled < TagLen {
		w.filled++
	}
}

// Matches reports whether the window currently holds exactly tag, in
// stream order.
func (w *Window) Matches(tag Tag) bool {
	if w.filled < TagLen {
		return false
	}
	for i := 0; i < TagLen; i++ {
		if w.buf[(w.pos+i)%TagLen] != tag[i] {
			return false
		}
	}
	return true
}
