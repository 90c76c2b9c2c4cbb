// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"

	"storj.io/kvcore/pkg/rdbformat/lzf"
)

// writeRDBString writes b as a generic RDB string field: if b is the
// canonical decimal form of an integer fitting int8/int16/int32, one of
// the integer sub-encodings is used (sub-codes 0, 1, 2); otherwise
// writeBlob is used, which may itself apply LZF compression.
func writeRDBString(w io.Writer, b []byte) error {
	if n, ok := canonicalSmallInt(b); ok {
		return writeIntEncoded(w, n)
	}
	return writeBlob(w, b)
}

// readRDBString is the symmetric reader for writeRDBString.
func readRDBString(r io.Reader) ([]byte, error) {
	n, isEncoded, encType, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	if !isEncoded {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, wrapShortRead(err)
		}
		return buf, nil
	}
	switch encType {
	case EncInt8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapShortRead(err)
		}
		return []byte(strconv.FormatInt(int64(int8(b[0])), 10)), nil
	case EncInt16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapShortRead(err)
		}
		return []byte(strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(b[:]))), 10)), nil
	case EncInt32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapShortRead(err)
		}
		return []byte(strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b[:]))), 10)), nil
	case EncLZF:
		complen, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}
		origlen, _, _, err := ReadLength(r)
		if err != nil {
			return nil, err
		}
		compressed := make([]byte, complen)
		if _, err := io.ReadFull(r, compressed); err != nil {
			return nil, wrapShortRead(err)
		}
		out, err := lzf.Decompress(compressed, int(origlen))
		if err != nil {
			return nil, ErrChecksumMismatch.Wrap(err)
		}
		return out, nil
	default:
		return nil, ErrUnknownOpcode.New("unknown string sub-encoding %d", encType)
	}
}

// writeBlob writes b as a plain length-prefixed byte string, applying
// LZF compression when b is at least LZFMinLength bytes and compression
// actually shrinks it. Strings below that length are never compressed.
func writeBlob(w io.Writer, b []byte) error {
	if len(b) >= LZFMinLength {
		if compressed := lzf.Compress(b); compressed != nil && len(compressed) < len(b) {
			if err := WriteEncodedMarker(w, EncLZF); err != nil {
				return err
			}
			if err := WriteLength(w, uint64(len(compressed))); err != nil {
				return err
			}
			if err := WriteLength(w, uint64(len(b))); err != nil {
				return err
			}
			_, err := w.Write(compressed)
			return err
		}
	}
	if err := WriteLength(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// canonicalSmallInt reports whether b is the canonical (no leading
// zeros, no leading '+') base-10 form of an integer fitting in int32.
func canonicalSmallInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 11 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || n < -(1<<31) || n > (1<<31-1) {
		return 0, false
	}
	if strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return n, true
}

func writeIntEncoded(w io.Writer, n int64) error {
	switch {
	case n >= -128 && n <= 127:
		if err := WriteEncodedMarker(w, EncInt8); err != nil {
			return err
		}
		_, err := w.Write([]byte{byte(int8(n))})
		return err
	case n >= -32768 && n <= 32767:
		if err := WriteEncodedMarker(w, EncInt16); err != nil {
			return err
		}
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(int16(n)))
		_, err := w.Write(buf[:])
		return err
	default:
		if err := WriteEncodedMarker(w, EncInt32); err != nil {
			return err
		}
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(n)))
		_, err := w.Write(buf[:])
		return err
	}
}

// writeChunkBlob encodes entries as a count-prefixed sequence of
// writeRDBString fields, then wraps the whole thing with writeBlob as a
// single length-prefixed blob. This stands in for an exact
// Redis-compatible ziplist/listpack byte layout; see DESIGN.md for why
// that exact layout is out of scope here.
func writeChunkBlob(w io.Writer, entries [][]byte) error {
	var buf bytes.Buffer
	if err := WriteLength(&buf, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeRDBString(&buf, e); err != nil {
			return err
		}
	}
	return writeBlob(w, buf.Bytes())
}

// readChunkBlob is the symmetric reader for writeChunkBlob.
func readChunkBlob(r io.Reader) ([][]byte, error) {
	raw, err := readBlobBytes(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(raw)
	count, _, _, err := ReadLength(br)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		e, err := readRDBString(br)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// readBlobBytes reads a writeBlob-encoded field without attempting
// integer sub-decoding (LZF is still honored).
func readBlobBytes(r io.Reader) ([]byte, error) {
	n, isEncoded, encType, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	if !isEncoded {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, wrapShortRead(err)
		}
		return buf, nil
	}
	if encType != EncLZF {
		return nil, ErrUnknownOpcode.New("unexpected int sub-encoding %d in blob field", encType)
	}
	complen, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	origlen, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	compressed := make([]byte, complen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, wrapShortRead(err)
	}
	out, err := lzf.Decompress(compressed, int(origlen))
	if err != nil {
		return nil, ErrChecksumMismatch.Wrap(err)
	}
	return out, nil
}
