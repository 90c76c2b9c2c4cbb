// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package primary

import (
	"time"

	"go.uber.org/zap"

	"storj.io/kvcore/pkg/replication/backlog"
	"storj.io/kvcore/pkg/replid"
)

// Engine is the primary side of replication: it owns the backlog,
// replication identity, script cache, and the set of attached replicas.
type Engine struct {
	log *zap.Logger

	Identity *replid.Identity
	Backlog  *backlog.Backlog
	Scripts  *ScriptCache

	replicas map[string]*Replica

	propagationDB int // the database the backlog's tail was last written against
}

// NewEngine creates an Engine with a fresh replication identity, a
// backlog of the given capacity, and a script cache of the given
// capacity.
func NewEngine(log *zap.Logger, backlogCapacity, scriptCacheCapacity int) *Engine {
	return &Engine{
		log:           log,
		Identity:      replid.NewIdentity(),
		Backlog:       backlog.New(backlogCapacity),
		Scripts:       NewScriptCache(scriptCacheCapacity),
		replicas:      make(map[string]*Replica),
		propagationDB: -1,
	}
}

// Attach registers a newly connected replica in WaitBgsaveStart.
func (e *Engine) Attach(id string) *Replica {
	r := NewReplica(id)
	e.replicas[id] = r
	return r
}

// Detach removes a replica, e.g. on disconnect or ack timeout.
func (e *Engine) Detach(id string) {
	delete(e.replicas, id)
}

// Replica returns the tracked state for id, or nil if not attached.
func (e *Engine) Replica(id string) *Replica { return e.replicas[id] }

// Propagate serializes a write command into the canonical multi-bulk
// wire form, emitting a SELECT first if db differs from the
// propagation cursor's current database, appends the bytes to the
// backlog, and enqueues them to every attached replica's output buffer.
// Replicas still in WaitBgsaveStart are skipped -- their stream will
// begin with the snapshot itself.
func (e *Engine) Propagate(db int, args [][]byte) {
	var out []byte
	if db != e.propagationDB {
		out = append(out, selectCommand(db)...)
		e.propagationDB = db
	}
	out = append(out, EncodeMultiBulk(args)...)

	e.Backlog.Append(out)
	for _, r := range e.replicas {
		if r.State == WaitBgsaveStart {
			continue
		}
		r.Enqueue(out)
	}
}

// ProxyBytes appends already wire-encoded bytes received verbatim from
// this engine's own primary straight to the backlog and every attached
// replica's output buffer, with no re-serialization and no SELECT
// bookkeeping. A replica that itself serves sub-replicas uses this to
// proxy its primary's stream downstream while preserving offsets, so a
// later failover promotion yields consistent history.
func (e *Engine) ProxyBytes(b []byte) {
	e.Backlog.Append(b)
	for _, r := range e.replicas {
		if r.State == WaitBgsaveStart {
			continue
		}
		r.Enqueue(b)
	}
}

// ResyncDecision is the outcome of a PSYNC handshake evaluation.
type ResyncDecision struct {
	Partial bool
	// Backlog holds the bytes to stream from the requested offset to
	// the tail, valid only when Partial is true.
	Backlog []byte
}

// DecidePSYNC implements the PSYNC handshake logic: decline (full
// resync) if the requested replid doesn't match the current identity
// (directly, or as replid2 within second_replid_offset), or if the
// requested offset falls outside the backlog's retained range.
// Otherwise a partial resync is granted and the backlog bytes from
// offset onward are returned.
func (e *Engine) DecidePSYNC(requestedID replid.ID, requestedOffset int64) ResyncDecision {
	if !e.Identity.Matches(requestedID, requestedOffset) {
		e.log.Debug("psync declined: replid mismatch", zap.String("requested", string(requestedID)))
		return ResyncDecision{Partial: false}
	}
	tail, err := e.Backlog.ReadFrom(requestedOffset)
	if err != nil {
		e.log.Debug("psync declined: offset out of range", zap.Int64("offset", requestedOffset), zap.Error(err))
		return ResyncDecision{Partial: false}
	}
	return ResyncDecision{Partial: true, Backlog: tail}
}

// BeginFullResync transitions a replica through the full-resync path,
// per the disk/diskless split: callers pick the target out-of-band
// (this engine has no filesystem or socket access) and call
// AdvanceToSendBulk / AdvanceToOnlineDiskless accordingly once their
// side of the snapshot transfer is ready.
func (e *Engine) BeginFullResync(id string) (replid.ID, int64) {
	if r := e.replicas[id]; r != nil {
		r.State = WaitBgsaveEnd
	}
	return e.Identity.ReplID, e.Backlog.Offset()
}

// AdvanceToSendBulk moves a replica to SEND_BULK once its snapshot
// file is ready to stream (disk target).
func (e *Engine) AdvanceToSendBulk(id string) {
	if r := e.replicas[id]; r != nil {
		r.State = SendBulk
	}
}

// AdvanceToOnline moves a replica to ONLINE once its bulk transfer (disk
// target) has finished.
func (e *Engine) AdvanceToOnline(id string) {
	if r := e.replicas[id]; r != nil {
		r.State = Online
		r.InstallOnAck = false
	}
}

// AdvanceToOnlineDiskless moves a replica straight to ONLINE with
// InstallOnAck set, for the socket (diskless) target: the write
// handler stays gated until the replica's first ack, so the live
// backlog stream never interleaves with the EOF sentinel trailer.
func (e *Engine) AdvanceToOnlineDiskless(id string) {
	if r := e.replicas[id]; r != nil {
		r.State = Online
		r.InstallOnAck = true
	}
}

// GrantPartialResync transitions a replica straight to ONLINE without
// touching any snapshot state, matching the PSYNC handshake's
// "+CONTINUE" path.
func (e *Engine) GrantPartialResync(id string) {
	if r := e.replicas[id]; r != nil {
		r.State = Online
		r.InstallOnAck = false
	}
}

// Ack records a REPLCONF ACK from a replica.
func (e *Engine) Ack(id string, offset int64, now time.Time) {
	r := e.replicas[id]
	if r == nil {
		return
	}
	if r.InstallOnAck {
		r.AckFirst(offset, now)
		return
	}
	r.Ack(offset, now)
}

// GoodReplicaCount returns the number of Online replicas whose last ack
// is within maxLag of now.
func (e *Engine) GoodReplicaCount(now time.Time, maxLag time.Duration) int {
	n := 0
	for _, r := range e.replicas {
		if r.State == Online && now.Sub(r.AckTime) <= maxLag {
			n++
		}
	}
	return n
}

// DropStale detaches any replica whose last ack exceeds timeout, and
// returns the dropped IDs.
func (e *Engine) DropStale(now time.Time, timeout time.Duration) []string {
	var dropped []string
	for id, r := range e.replicas {
		if r.State == Online && r.AckTime.IsZero() {
			continue // hasn't had a chance to ack yet
		}
		if now.Sub(r.AckTime) > timeout {
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		e.Detach(id)
	}
	return dropped
}
