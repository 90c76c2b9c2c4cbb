// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"encoding/binary"
	"io"
)

// MaxLength bounds a single length prefix to guard against a corrupt or
// hostile stream claiming a length that would exceed any reasonable
// process memory budget.
const MaxLength = 1 << 34 // 16 GiB; generous but bounded

// WriteLength writes n using the smallest legal length-encoding prefix:
//
//	00xxxxxx            6-bit length
//	01xxxxxx xxxxxxxx   14-bit big-endian length
//	10000000 + 4 bytes  32-bit big-endian length
//	10000001 + 8 bytes  64-bit big-endian length
func WriteLength(w io.Writer, n uint64) error {
	switch {
	case n < 1<<6:
		_, err := w.Write([]byte{byte(n)})
		return err
	case n < 1<<14:
		_, err := w.Write([]byte{0x40 | byte(n>>8), byte(n)})
		return err
	case n <= 0xFFFFFFFF:
		buf := make([]byte, 5)
		buf[0] = 0x80
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0x81
		binary.BigEndian.PutUint64(buf[1:], n)
		_, err := w.Write(buf)
		return err
	}
}

// WriteEncodedMarker writes the 1-byte "encoded-object marker" form
// (top bits 11) selecting sub-encoding encType.
func WriteEncodedMarker(w io.Writer, encType byte) error {
	_, err := w.Write([]byte{0xC0 | encType})
	return err
}

// ReadLength reads one length prefix. If the top two bits are 11 the
// value is not a length but an encoded-object marker; isEncoded is true
// and encType holds the low 6 bits.
func ReadLength(r io.Reader) (n uint64, isEncoded bool, encType byte, err error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, false, 0, wrapShortRead(err)
	}
	switch first[0] >> 6 {
	case 0: // 00xxxxxx
		return uint64(first[0] & 0x3F), false, 0, nil
	case 1: // 01xxxxxx xxxxxxxx
		var next [1]byte
		if _, err := io.ReadFull(r, next[:]); err != nil {
			return 0, false, 0, wrapShortRead(err)
		}
		return uint64(first[0]&0x3F)<<8 | uint64(next[0]), false, 0, nil
	case 2: // 10xxxxxx
		switch first[0] {
		case 0x80:
			var buf [4]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return 0, false, 0, wrapShortRead(err)
			}
			n = uint64(binary.BigEndian.Uint32(buf[:]))
		case 0x81:
			var buf [8]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return 0, false, 0, wrapShortRead(err)
			}
			n = binary.BigEndian.Uint64(buf[:])
		default:
			return 0, false, 0, ErrUnknownOpcode.New("unsupported length prefix 0x%02x", first[0])
		}
		if n > MaxLength {
			return 0, false, 0, ErrLengthTooLarge.New("length %d exceeds limit", n)
		}
		return n, false, 0, nil
	default: // 11xxxxxx: encoded-object marker
		return 0, true, first[0] & 0x3F, nil
	}
}

func wrapShortRead(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrShortRead.Wrap(err)
	}
	return err
}
