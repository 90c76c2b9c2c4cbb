// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"
)

// Legacy 1-byte length-prefix magic values for the double encoding.
const (
	legacyDoubleNaN     byte = 253
	legacyDoublePosInf  byte = 254
	legacyDoubleNegInf  byte = 255
)

// WriteBinaryDouble writes f as an 8-byte little-endian IEEE-754 double,
// the form all new writes use.
func WriteBinaryDouble(w io.Writer, f float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	_, err := w.Write(buf[:])
	return err
}

// ReadBinaryDouble reads an 8-byte little-endian IEEE-754 double.
func ReadBinaryDouble(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// WriteLegacyDouble writes f using the legacy 1-byte-length-prefixed
// ASCII encoding: magic values for NaN/+Inf/-Inf, else the %.17g
// representation of that length. This codec only writes this form
// when explicitly asked (e.g. to exercise read-backward-compatibility in
// tests); new writes always use WriteBinaryDouble.
func WriteLegacyDouble(w io.Writer, f float64) error {
	switch {
	case math.IsNaN(f):
		_, err := w.Write([]byte{legacyDoubleNaN})
		return err
	case math.IsInf(f, 1):
		_, err := w.Write([]byte{legacyDoublePosInf})
		return err
	case math.IsInf(f, -1):
		_, err := w.Write([]byte{legacyDoubleNegInf})
		return err
	default:
		s := strconv.FormatFloat(f, 'g', 17, 64)
		if len(s) > 252 {
			s = s[:252]
		}
		if _, err := w.Write([]byte{byte(len(s))}); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	}
}

// ReadLegacyDouble reads the legacy 1-byte-length-prefixed ASCII double
// encoding.
func ReadLegacyDouble(r io.Reader) (float64, error) {
	var lenByte [1]byte
	if _, err := io.ReadFull(r, lenByte[:]); err != nil {
		return 0, wrapShortRead(err)
	}
	switch lenByte[0] {
	case legacyDoubleNaN:
		return math.NaN(), nil
	case legacyDoublePosInf:
		return math.Inf(1), nil
	case legacyDoubleNegInf:
		return math.Inf(-1), nil
	default:
		buf := make([]byte, lenByte[0])
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, wrapShortRead(err)
		}
		f, err := strconv.ParseFloat(string(buf), 64)
		if err != nil {
			return 0, Error.Wrap(err)
		}
		return f, nil
	}
}
