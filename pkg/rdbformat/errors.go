// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import "github.com/zeebo/errs"

// Error is the class for all rdbformat errors.
var Error = errs.Class("rdb")

// Sentinel error kinds: a short read, an unknown opcode, an oversized
// length, or a checksum mismatch each report a distinct kind.
var (
	ErrShortRead       = errs.Class("rdb short read")
	ErrUnknownOpcode   = errs.Class("rdb unknown opcode")
	ErrLengthTooLarge  = errs.Class("rdb length too large")
	ErrChecksumMismatch = errs.Class("rdb checksum mismatch")
	ErrBadMagic        = errs.Class("rdb bad magic")
)
