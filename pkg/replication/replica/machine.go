// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package replica

import (
	"go.uber.org/zap"

	"storj.io/kvcore/pkg/replid"
)

// CachedMaster preserves a primary connection's replication identity
// and consumed offset across a dropped link, so a subsequent
// reconnect can attempt a partial resync via +CONTINUE instead of a
// full transfer.
type CachedMaster struct {
	ReplID replid.ID
	Offset int64
}

// Machine drives one replica's handshake with its primary.
type Machine struct {
	log *zap.Logger

	State State

	skipAuth bool // true when no credential is configured

	replID replid.ID
	offset int64

	cachedMaster *CachedMaster
}

// NewMachine creates a Machine starting in None, with no cached master.
func NewMachine(log *zap.Logger, skipAuth bool) *Machine {
	return &Machine{log: log, skipAuth: skipAuth, State: None}
}

// Advance moves the machine to the next state in the linear chain.
// Callers invoke this after each SEND step completes or each RECEIVE
// step's reply has been validated.
func (m *Machine) Advance() {
	m.State = next(m.State, m.skipAuth)
}

// ReplID returns the replica's currently recorded replication ID (the
// one it is synced against once CONNECTED).
func (m *Machine) ReplID() replid.ID { return m.replID }

// Offset returns the replica's currently consumed replication offset.
func (m *Machine) Offset() int64 { return m.offset }

// PSYNCRequest builds the PSYNC command to send in the SendPSYNC
// state: resuming from a cached master if one exists, else a fresh
// "PSYNC ? -1".
func (m *Machine) PSYNCRequest() (replID replid.ID, offset int64) {
	if m.cachedMaster != nil {
		return m.cachedMaster.ReplID, m.cachedMaster.Offset + 1
	}
	return replid.Unknown, -1
}

// HandleFullResync records the (id, offset) a +FULLRESYNC reply
// carried and discards any cached master, per the handshake contract.
func (m *Machine) HandleFullResync(id replid.ID, offset int64) {
	m.replID = id
	m.offset = offset
	m.cachedMaster = nil
}

// HandleContinue resurrects the cached primary as the live primary: if
// newID is non-empty the replication ID is rotated to it (and should be
// propagated to any sub-replicas by the caller); the consumed offset
// carries over unchanged.
func (m *Machine) HandleContinue(newID replid.ID) {
	if m.cachedMaster != nil {
		m.replID = m.cachedMaster.ReplID
		m.offset = m.cachedMaster.Offset
	}
	if newID != "" {
		m.replID = newID
	}
	m.cachedMaster = nil
}

// AdvanceOffset records bytes of replicated stream consumed past the
// handshake, e.g. backlog bytes applied during TRANSFER or ongoing
// command-stream bytes once CONNECTED.
func (m *Machine) AdvanceOffset(n int64) { m.offset += n }

// LinkDropped moves the machine back to Connect and preserves the
// current replication identity/offset as a CachedMaster, clearing
// pending data but keeping enough state for a future +CONTINUE.
func (m *Machine) LinkDropped() {
	m.cachedMaster = &CachedMaster{ReplID: m.replID, Offset: m.offset}
	m.State = Connect
}

// CancelHandshake implements cancelReplicationHandshake: it resets the
// machine to Connect without caching a master (used when the handshake
// itself failed before ever reaching CONNECTED, so there's nothing
// worth resuming).
func (m *Machine) CancelHandshake() {
	m.cachedMaster = nil
	m.State = Connect
}

// HasCachedMaster reports whether a cached master is available to
// attempt a +CONTINUE against.
func (m *Machine) HasCachedMaster() bool { return m.cachedMaster != nil }
