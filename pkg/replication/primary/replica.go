// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package primary

import "time"

// Replica tracks one attached replica connection's replication state.
type Replica struct {
	ID      string
	State   State
	// InstallOnAck is set for a replica that finished a diskless
	// (socket-target) full resync and is waiting for its first ack
	// before the write handler is armed, so the backlog's live stream
	// never interleaves with the EOF sentinel trailer.
	InstallOnAck bool

	AckOffset int64
	AckTime   time.Time

	output [][]byte // pending bytes not yet drained by the caller's writer
}

// NewReplica creates a Replica starting in WaitBgsaveStart, the state a
// newly attached connection enters before any snapshot has been
// scheduled for it.
func NewReplica(id string) *Replica {
	return &Replica{ID: id, State: WaitBgsaveStart}
}

// Enqueue appends b to the replica's pending output. Bytes are buffered
// in every state except WaitBgsaveStart; DrainOutput holds them back
// until the replica is Online and past any install-on-ack gate.
func (r *Replica) Enqueue(b []byte) {
	if r.State == WaitBgsaveStart {
		return
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	r.output = append(r.output, cp)
}

// DrainOutput returns and clears the replica's pending output, for the
// caller to write to the actual connection. It returns nil, keeping the
// output buffered, while the replica is not Online or is still waiting
// for its first ack after a diskless full resync.
func (r *Replica) DrainOutput() [][]byte {
	if r.State != Online || r.InstallOnAck {
		return nil
	}
	out := r.output
	r.output = nil
	return out
}

// Ack records an acknowledgement of offset at time now.
func (r *Replica) Ack(offset int64, now time.Time) {
	r.AckOffset = offset
	r.AckTime = now
}

// AckFirst clears InstallOnAck on the first ack received after a
// diskless full resync, arming the write handler without perturbing
// offsets, per the primary's diskless-transfer ordering guarantee.
func (r *Replica) AckFirst(offset int64, now time.Time) {
	r.Ack(offset, now)
	r.InstallOnAck = false
}
