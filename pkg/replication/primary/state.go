// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package primary implements the primary side of asynchronous
// replication: per-replica state tracking, command propagation into the
// backlog and replica output buffers, the PSYNC handshake's full/partial
// resync decision, ack bookkeeping, and the WAIT barrier. It does not
// send PINGs or keepalive newlines to replicas. It deliberately has no socket or event-loop code of its own
// (that layer is out of scope); callers drive it by feeding in ack
// reports and pulling bytes to write to each replica's connection.
package primary

import "github.com/zeebo/errs"

// Error is the class for all primary-engine errors.
var Error = errs.Class("primary")

// State is a replica's position in the primary's replication state
// machine, modeled after objval.Type/Encoding's enum+String() pattern.
type State uint8

// Replica states.
const (
	WaitBgsaveStart State = iota // enqueued for the next snapshot
	WaitBgsaveEnd                // snapshot in progress, sharing its output
	SendBulk                     // snapshot file/bytes being streamed
	Online                       // live command stream
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case WaitBgsaveStart:
		return "wait_bgsave_start"
	case WaitBgsaveEnd:
		return "wait_bgsave_end"
	case SendBulk:
		return "send_bulk"
	case Online:
		return "online"
	default:
		return "unknown"
	}
}
