// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"errors"
	"hash"
	"io"
	"strconv"

	"storj.io/kvcore/pkg/keyspace"
	"storj.io/kvcore/pkg/objval"
	"storj.io/kvcore/pkg/rdbformat/eofmark"
)

// Aux collects every AUX field encountered while decoding, keyed by
// field name; fields this codec doesn't specifically recognize are kept
// here too rather than dropped, matching real loaders' forward
// compatibility with newer AUX fields.
type Aux map[string]string

// resizeDBMaxHint caps how large a RESIZEDB hint's bucket-count values
// are allowed to presize a map allocation to, guarding against a
// corrupt or hostile stream claiming a huge hint to force a large
// up-front allocation before any keys have actually been read.
const resizeDBMaxHint = 1 << 20

// Decoder deserializes a stream previously produced by Encoder into a
// keyspace.Registry.
type Decoder struct {
	r    io.Reader
	hash hash.Hash64
	mr   io.Reader

	Aux Aux
}

// NewDecoder returns a Decoder reading from r. The running CRC64 is
// accumulated transparently as bytes are consumed from r; LoadInto checks
// it against the CRC64 trailer once the stream's EOF opcode is reached.
func NewDecoder(r io.Reader) *Decoder {
	h := NewCRC64()
	return &Decoder{r: r, hash: h, mr: io.TeeReader(r, h), Aux: make(Aux)}
}

// ReadHeader validates the magic+version prefix and consumes leading AUX
// opcodes, returning the next unconsumed opcode byte (a SELECTDB or EOF).
func (d *Decoder) ReadHeader() (byte, error) {
	var magic [5]byte
	if _, err := io.ReadFull(d.mr, magic[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	if string(magic[:]) != Magic {
		return 0, ErrBadMagic.New("got %q", magic[:])
	}
	var ver [4]byte
	if _, err := io.ReadFull(d.mr, ver[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	n, err := strconv.Atoi(string(ver[:]))
	if err != nil || n > Version {
		return 0, Error.New("unsupported RDB version %q", ver[:])
	}

	for {
		op, err := d.readOpcode()
		if err != nil {
			return 0, err
		}
		if op != OpcodeAux {
			return op, nil
		}
		key, err := readRDBString(d.mr)
		if err != nil {
			return 0, err
		}
		value, err := readRDBString(d.mr)
		if err != nil {
			return 0, err
		}
		d.Aux[string(key)] = string(value)
	}
}

func (d *Decoder) readOpcode() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.mr, b[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	return b[0], nil
}

// LoadInto decodes the entire body (everything after the header's
// leading AUX run) into reg, returning once the EOF opcode is reached
// and its CRC64 trailer has been verified.
func (d *Decoder) LoadInto(reg *keyspace.Registry, firstOpcode byte) error {
	return d.loadBody(reg, firstOpcode, false)
}

func (d *Decoder) readRecord(typeTag byte) (string, *objval.Object, error) {
	key, err := readRDBString(d.mr)
	if err != nil {
		return "", nil, err
	}
	v, err := readPayload(d.mr, typeTag)
	if err != nil {
		return "", nil, err
	}
	return string(key), v, nil
}

func readPayload(r io.Reader, typeTag byte) (*objval.Object, error) {
	switch typeTag {
	case TypeString:
		b, err := readRDBString(r)
		if err != nil {
			return nil, err
		}
		return objval.NewStringFromBytes(b), nil
	case TypeListQuicklist:
		return readListPayload(r)
	case TypeSetIntset:
		return readSetIntsetPayload(r)
	case TypeSetHT:
		return readSetHTPayload(r)
	case TypeHashZiplist:
		return readHashZiplistPayload(r)
	case TypeHashHT:
		return readHashHTPayload(r)
	case TypeZsetZiplist:
		return readZsetZiplistPayload(r)
	case TypeZset2:
		return readZsetSkiplistPayload(r)
	case TypeStream:
		return readStreamPayload(r)
	default:
		return nil, ErrUnknownOpcode.New("unknown value type tag %d", typeTag)
	}
}

// verifyTrailer reads the 8-byte CRC64 trailer and checks it against the
// running checksum computed over everything read so far (the EOF opcode
// itself included).
func (d *Decoder) verifyTrailer() error {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return wrapShortRead(err)
	}
	want := uint64LE(buf[:])
	got := d.hash.Sum64()
	if want != 0 && want != got {
		return ErrChecksumMismatch.New("trailer checksum %x does not match computed %x", want, got)
	}
	return nil
}

func uint64LE(b []byte) uint64 {
	var n uint64
	for i := 0; i < 8; i++ {
		n |= uint64(b[i]) << (8 * i)
	}
	return n
}

func uint32LE(b []byte) uint32 {
	var n uint32
	for i := 0; i < 4; i++ {
		n |= uint32(b[i]) << (8 * i)
	}
	return n
}

// LoadStreaming decodes a diskless-transfer body that is terminated by a
// trailing repeat of tag instead of an OpcodeEOF+CRC64 trailer: the
// caller has already consumed the leading copy of tag plus the header
// before calling this (ReadHeader runs on the raw reader beforehand;
// the tag stripping starts here). Internally this holds back the last eofmark.TagLen bytes of
// the underlying stream so the record loop only ever observes
// body bytes, and treats the underlying reader's EOF as equivalent to
// an OpcodeEOF.
func (d *Decoder) LoadStreaming(reg *keyspace.Registry, tag eofmark.Tag, firstOpcode byte) error {
	stripped := newTagStrippingReader(d.r, tag)
	d.r = stripped
	d.mr = stripped
	return d.loadBody(reg, firstOpcode, true)
}

func (d *Decoder) loadBody(reg *keyspace.Registry, firstOpcode byte, streaming bool) error {
	op := firstOpcode
	var db *keyspace.DB
	var pendingExpire int64
	hasPendingExpire := false

	for {
		switch op {
		case OpcodeEOF:
			return d.verifyTrailer()
		case OpcodeSelectDB:
			idx, _, _, err := ReadLength(d.mr)
			if err != nil {
				return err
			}
			db = reg.DB(int(idx))
		case OpcodeResizeDB:
			hashSize, _, _, err := ReadLength(d.mr)
			if err != nil {
				return err
			}
			expiresSize, _, _, err := ReadLength(d.mr)
			if err != nil {
				return err
			}
			// The hint only ever informs a map presize in the real engine;
			// clamp rather than trust it outright so a corrupt stream can't
			// force an oversized allocation before any keys are read. An
			// oversized hint never fails the load.
			hashSize = min(hashSize, resizeDBMaxHint)
			expiresSize = min(expiresSize, resizeDBMaxHint)
		case OpcodeExpireMs:
			var buf [8]byte
			if _, err := io.ReadFull(d.mr, buf[:]); err != nil {
				return wrapShortRead(err)
			}
			pendingExpire = int64(uint64LE(buf[:]))
			hasPendingExpire = true
		case OpcodeExpireSec:
			var buf [4]byte
			if _, err := io.ReadFull(d.mr, buf[:]); err != nil {
				return wrapShortRead(err)
			}
			pendingExpire = int64(uint32LE(buf[:])) * 1000
			hasPendingExpire = true
		case OpcodeIdle:
			if _, _, _, err := ReadLength(d.mr); err != nil {
				return err
			}
		case OpcodeFreq:
			var b [1]byte
			if _, err := io.ReadFull(d.mr, b[:]); err != nil {
				return wrapShortRead(err)
			}
		default:
			if db == nil {
				return Error.New("value record before any SELECTDB opcode")
			}
			key, value, err := d.readRecord(op)
			if err != nil {
				return err
			}
			db.Put(key, value)
			if hasPendingExpire {
				db.SetExpire(key, pendingExpire)
				hasPendingExpire = false
			}
		}

		var next [1]byte
		if _, err := io.ReadFull(d.mr, next[:]); err != nil {
			if streaming && errors.Is(err, io.EOF) {
				return nil
			}
			return wrapShortRead(err)
		}
		op = next[0]
	}
}

// tagStrippingReader holds back the trailing eofmark.TagLen bytes of an
// underlying stream (which are expected to equal tag) so that a decoder
// reading through it sees a clean io.EOF exactly at the real body
// boundary, never the tag bytes themselves.
type tagStrippingReader struct {
	r      io.Reader
	tag    eofmark.Tag
	buf    []byte // held-back bytes, len <= TagLen
	err    error
}

func newTagStrippingReader(r io.Reader, tag eofmark.Tag) *tagStrippingReader {
	return &tagStrippingReader{r: r, tag: tag}
}

func (t *tagStrippingReader) Read(p []byte) (int, error) {
	for len(t.buf) <= eofmark.TagLen && t.err == nil {
		chunk := make([]byte, eofmark.TagLen)
		n, err := t.r.Read(chunk)
		t.buf = append(t.buf, chunk[:n]...)
		t.err = err
		if n == 0 && err == nil {
			continue
		}
	}
	if len(t.buf) <= eofmark.TagLen {
		if t.err != nil && t.err != io.EOF {
			return 0, t.err
		}
		if len(t.buf) == eofmark.TagLen {
			if string(t.buf) != string(t.tag[:]) {
				return 0, Error.New("streaming trailer did not match expected EOF tag")
			}
			return 0, io.EOF
		}
		return 0, wrapShortRead(io.ErrUnexpectedEOF)
	}
	releasable := len(t.buf) - eofmark.TagLen
	n := copy(p, t.buf[:releasable])
	t.buf = t.buf[n:]
	return n, nil
}
