// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"hash"
	"io"
	"strconv"

	"storj.io/kvcore/pkg/keyspace"
	"storj.io/kvcore/pkg/objval"
	"storj.io/kvcore/pkg/rdbformat/eofmark"
)

// AuxFields carries the well-known AUX metadata fields written at the
// head of the stream.
type AuxFields struct {
	RedisVer  string
	RedisBits string
	CTime     int64
	UsedMem   int64
}

// Encoder serializes a keyspace.Registry (or individual DBs) into the
// binary format: header, AUX fields, one SELECTDB+RESIZEDB+records
// section per non-empty database, then an EOF trailer.
//
// Encoder writes to an underlying hash.Hash64 in parallel so the EOF
// trailer's checksum covers everything written before it, without
// buffering the whole stream in memory.
type Encoder struct {
	w    io.Writer
	hash hash.Hash64
	mw   io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	h := NewCRC64()
	return &Encoder{w: w, hash: h, mw: io.MultiWriter(w, h)}
}

// WriteHeader writes the fixed "REDIS" + 4-digit version prefix followed
// by the AUX fields.
func (e *Encoder) WriteHeader(aux AuxFields) error {
	if _, err := io.WriteString(e.mw, Magic); err != nil {
		return err
	}
	if _, err := io.WriteString(e.mw, versionString()); err != nil {
		return err
	}
	for _, kv := range [][2]string{
		{AuxRedisVer, aux.RedisVer},
		{AuxRedisBits, aux.RedisBits},
	} {
		if kv[1] == "" {
			continue
		}
		if err := e.writeAux(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if aux.CTime != 0 {
		if err := e.writeAux(AuxCTime, strconv.FormatInt(aux.CTime, 10)); err != nil {
			return err
		}
	}
	if aux.UsedMem != 0 {
		if err := e.writeAux(AuxUsedMem, strconv.FormatInt(aux.UsedMem, 10)); err != nil {
			return err
		}
	}
	return nil
}

// WriteReplAux writes the replication-stream bookkeeping AUX fields used
// when this snapshot backs a partial-resync-capable full sync.
func (e *Encoder) WriteReplAux(db int, replID string, offset int64) error {
	if err := e.writeAux(AuxReplStreamDB, strconv.Itoa(db)); err != nil {
		return err
	}
	if err := e.writeAux(AuxReplID, replID); err != nil {
		return err
	}
	return e.writeAux(AuxReplOffset, strconv.FormatInt(offset, 10))
}

func (e *Encoder) writeAux(key, value string) error {
	if _, err := e.mw.Write([]byte{OpcodeAux}); err != nil {
		return err
	}
	if err := writeRDBString(e.mw, []byte(key)); err != nil {
		return err
	}
	return writeRDBString(e.mw, []byte(value))
}

func versionString() string {
	s := strconv.Itoa(Version)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// WriteDB writes one database's SELECTDB opcode, RESIZEDB hint, and every
// live key's record.
func (e *Encoder) WriteDB(db *keyspace.DB) error {
	if _, err := e.mw.Write([]byte{OpcodeSelectDB}); err != nil {
		return err
	}
	if err := WriteLength(e.mw, uint64(db.Index())); err != nil {
		return err
	}

	keys := db.DumpKeys()
	expiring := 0
	for _, k := range keys {
		if _, ok := db.GetExpire(k); ok {
			expiring++
		}
	}
	if _, err := e.mw.Write([]byte{OpcodeResizeDB}); err != nil {
		return err
	}
	if err := WriteLength(e.mw, uint64(len(keys))); err != nil {
		return err
	}
	if err := WriteLength(e.mw, uint64(expiring)); err != nil {
		return err
	}

	for _, k := range keys {
		v, ok := db.Get(k)
		if !ok {
			continue
		}
		if expireAt, ok := db.GetExpire(k); ok {
			if _, err := e.mw.Write([]byte{OpcodeExpireMs}); err != nil {
				return err
			}
			var buf [8]byte
			putUint64LE(buf[:], uint64(expireAt))
			if _, err := e.mw.Write(buf[:]); err != nil {
				return err
			}
		}
		if err := e.writeRecord(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeRecord(key string, v *objval.Object) error {
	tag, err := typeTagFor(v)
	if err != nil {
		return err
	}
	if _, err := e.mw.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writeRDBString(e.mw, []byte(key)); err != nil {
		return err
	}
	return writePayload(e.mw, v)
}

// WriteEOF writes the EOF opcode followed by the running CRC64 trailer.
func (e *Encoder) WriteEOF() error {
	if _, err := e.w.Write([]byte{OpcodeEOF}); err != nil {
		return err
	}
	if _, err := e.hash.Write([]byte{OpcodeEOF}); err != nil {
		return err
	}
	sum := e.hash.Sum64()
	var buf [8]byte
	putUint64LE(buf[:], sum)
	_, err := e.w.Write(buf[:])
	return err
}

// WriteStreamingEOF writes the diskless-transfer framing: the sentinel
// tag has already been written once by the caller before the body; this
// writes the body's closing opcode-less repeat of that same tag, with no
// CRC64 trailer (the tag itself is the terminator).
func (e *Encoder) WriteStreamingEOF(tag eofmark.Tag) error {
	_, err := e.w.Write(tag[:])
	return err
}

func typeTagFor(v *objval.Object) (byte, error) {
	switch v.Type() {
	case objval.TypeString:
		return TypeString, nil
	case objval.TypeList:
		return TypeListQuicklist, nil
	case objval.TypeSet:
		if v.Encoding() == objval.EncodingIntset {
			return TypeSetIntset, nil
		}
		return TypeSetHT, nil
	case objval.TypeHash:
		if v.Encoding() == objval.EncodingZiplist {
			return TypeHashZiplist, nil
		}
		return TypeHashHT, nil
	case objval.TypeSortedSet:
		if v.Encoding() == objval.EncodingZiplist {
			return TypeZsetZiplist, nil
		}
		return TypeZset2, nil
	case objval.TypeStream:
		return TypeStream, nil
	default:
		return 0, Error.New("no RDB type tag for %v", v.Type())
	}
}

func writePayload(w io.Writer, v *objval.Object) error {
	switch v.Type() {
	case objval.TypeString:
		b, err := objval.StringBytes(v)
		if err != nil {
			return err
		}
		return writeRDBString(w, b)
	case objval.TypeList:
		return writeListPayload(w, v)
	case objval.TypeSet:
		if v.Encoding() == objval.EncodingIntset {
			return writeSetIntsetPayload(w, v)
		}
		return writeSetHTPayload(w, v)
	case objval.TypeHash:
		if v.Encoding() == objval.EncodingZiplist {
			return writeHashZiplistPayload(w, v)
		}
		return writeHashHTPayload(w, v)
	case objval.TypeSortedSet:
		if v.Encoding() == objval.EncodingZiplist {
			return writeZsetZiplistPayload(w, v)
		}
		return writeZsetSkiplistPayload(w, v)
	case objval.TypeStream:
		return writeStreamPayload(w, v)
	default:
		return Error.New("no RDB payload writer for %v", v.Type())
	}
}

func putUint64LE(b []byte, n uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(n >> (8 * i))
	}
}
