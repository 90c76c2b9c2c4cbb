// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package replid implements replication identity: the 40-hex-character
// IDs a primary and its replicas use to recognize whether a PSYNC
// request is resumable, and the replid/replid2/second_replid_offset
// bookkeeping that survives a replid rotation.
package replid

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/zeebo/errs"
)

// Error is the class for all replid errors.
var Error = errs.Class("replid")

// Len is the fixed length of an ID: 20 random bytes, hex-encoded.
const Len = 40

// ID is a 40-hex-character replication identity.
type ID string

// Unknown is the wire value "?" a replica sends when it has no cached
// primary to resume from.
const Unknown ID = "?"

// New generates a fresh random ID via crypto/rand (see also
// storj.io/kvcore/pkg/rdbformat/eofmark.NewTag for the same pattern).
func New() ID {
	var raw [Len / 2]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic(Error.Wrap(err).Error())
	}
	buf := make([]byte, Len)
	hex.Encode(buf, raw[:])
	return ID(buf)
}

// Identity is the replid/replid2/second_replid_offset bookkeeping a
// primary carries, and a replica mirrors once it has synced: the
// current ID, the previous ID kept alive for one more generation, and
// the backlog offset up to which the previous ID is still honored.
type Identity struct {
	ReplID           ID
	ReplID2          ID
	SecondReplOffset int64
}

// NewIdentity creates a fresh identity with a newly generated ReplID and
// no secondary.
func NewIdentity() *Identity {
	return &Identity{ReplID: New(), ReplID2: Unknown, SecondReplOffset: -1}
}

// Matches reports whether a PSYNC request's (id, offset) pair may be
// honored against this identity: either id is the current ReplID, or it
// is ReplID2 and offset does not exceed SecondReplOffset -- the primary
// text's "does not match replid2 within second_replid_offset" rule.
func (id *Identity) Matches(requested ID, offset int64) bool {
	if requested == id.ReplID {
		return true
	}
	if id.ReplID2 != Unknown && id.ReplID2 != "" && requested == id.ReplID2 {
		return offset <= id.SecondReplOffset
	}
	return false
}

// Rotate replaces the current ReplID with a freshly generated one,
// demoting the old ID to ReplID2 and recording currentOffset as the
// boundary up to which the old ID is still honored -- used when a
// replica promoted to primary (failover) must keep history continuity
// with its own former sub-replicas.
func (id *Identity) Rotate(currentOffset int64) ID {
	id.ReplID2 = id.ReplID
	id.SecondReplOffset = currentOffset
	id.ReplID = New()
	return id.ReplID
}
