// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package rdbformat implements the RDB snapshot codec: a self-describing
// binary format with variable-length integers, LZF compression,
// per-type encodings, and a trailing CRC64 checksum, usable either as a
// file or as a streaming transport framed by an EOF sentinel.
package rdbformat

// Magic is the fixed 5-byte prefix of every RDB stream.
const Magic = "REDIS"

// Version is the 4-ASCII-digit version this codec writes. Readers are
// backward compatible with any version <= this one.
const Version = 11

// Opcodes for stream framing. The ones in use occupy 0xF8..0xFF; 0xF4,
// 0xF5 and 0xF7 are declared as reserved and never written or read.
const (
	OpcodeSlotInfo    byte = 0xF4 // reserved, unused by this implementation
	OpcodeFunction2   byte = 0xF5 // reserved, unused by this implementation
	OpcodeModuleAux   byte = 0xF7 // reserved, unused by this implementation
	OpcodeIdle        byte = 0xF8
	OpcodeFreq        byte = 0xF9
	OpcodeAux         byte = 0xFA
	OpcodeResizeDB    byte = 0xFB
	OpcodeExpireMs    byte = 0xFC
	OpcodeExpireSec   byte = 0xFD
	OpcodeSelectDB    byte = 0xFE
	OpcodeEOF         byte = 0xFF
)

// Type tags for per-record value payloads: a 1-byte tag preceding each
// key's value.
const (
	TypeString       byte = 0
	TypeListQuicklist byte = 18
	TypeSetIntset    byte = 11
	TypeSetHT        byte = 2
	TypeZsetZiplist  byte = 12
	TypeZset2        byte = 5 // binary-double sorted set, "Sorted Set v2"
	TypeHashZiplist  byte = 13
	TypeHashHT       byte = 4
	TypeStream       byte = 21
)

// Recognized well-known AUX field keys.
const (
	AuxRedisVer      = "redis-ver"
	AuxRedisBits     = "redis-bits"
	AuxCTime         = "ctime"
	AuxUsedMem       = "used-mem"
	AuxReplStreamDB  = "repl-stream-db"
	AuxReplID        = "repl-id"
	AuxReplOffset    = "repl-offset"
	AuxAOFPreamble   = "aof-preamble"
)

// Encoded-object sub-encodings, selected when a length prefix's top two
// bits are 11.
const (
	EncInt8  byte = 0
	EncInt16 byte = 1
	EncInt32 byte = 2
	EncLZF   byte = 3
)

// LZFMinLength is the minimum string length eligible for LZF compression.
// Strings below this length are never compressed.
const LZFMinLength = 21
