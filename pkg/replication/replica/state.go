// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package replica implements the replica side of asynchronous
// replication: the linear handshake state machine, the cached-master
// object that survives a dropped link, and snapshot reception (disk and
// diskless) via pkg/rdbformat. As with pkg/replication/primary, this
// package has no socket or event-loop code of its own; callers drive
// the handshake through Advance, PSYNCRequest, HandleFullResync and
// HandleContinue, and do their own reply parsing and command writing.
package replica

import "github.com/zeebo/errs"

// Error is the class for all replica-engine errors.
var Error = errs.Class("replica")

// State is a position in the replica's linear handshake, steady only
// once Connected.
type State uint8

// Handshake states, in the order the linear chain visits them.
const (
	None State = iota
	Connect
	Connecting
	ReceivePong
	SendAuth
	ReceiveAuth
	SendPort
	ReceivePort
	SendIP
	ReceiveIP
	SendCapa
	ReceiveCapa
	SendPSYNC
	ReceivePSYNC
	Transfer
	Connected
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Connect:
		return "connect"
	case Connecting:
		return "connecting"
	case ReceivePong:
		return "receive_pong"
	case SendAuth:
		return "send_auth"
	case ReceiveAuth:
		return "receive_auth"
	case SendPort:
		return "send_port"
	case ReceivePort:
		return "receive_port"
	case SendIP:
		return "send_ip"
	case ReceiveIP:
		return "receive_ip"
	case SendCapa:
		return "send_capa"
	case ReceiveCapa:
		return "receive_capa"
	case SendPSYNC:
		return "send_psync"
	case ReceivePSYNC:
		return "receive_psync"
	case Transfer:
		return "transfer"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// next returns the state that follows s in the linear chain, skipping
// the auth steps when skipAuth is true (no credential configured).
func next(s State, skipAuth bool) State {
	switch s {
	case None:
		return Connect
	case Connect:
		return Connecting
	case Connecting:
		return ReceivePong
	case ReceivePong:
		if skipAuth {
			return SendPort
		}
		return SendAuth
	case SendAuth:
		return ReceiveAuth
	case ReceiveAuth:
		return SendPort
	case SendPort:
		return ReceivePort
	case ReceivePort:
		return SendIP
	case SendIP:
		return ReceiveIP
	case ReceiveIP:
		return SendCapa
	case SendCapa:
		return ReceiveCapa
	case ReceiveCapa:
		return SendPSYNC
	case SendPSYNC:
		return ReceivePSYNC
	case ReceivePSYNC:
		return Transfer
	case Transfer:
		return Connected
	default:
		return s
	}
}
