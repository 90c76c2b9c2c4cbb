// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbformat

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"

	"storj.io/kvcore/pkg/objval"
)

func writeSetHTPayload(w io.Writer, o *objval.Object) error {
	members, err := objval.SetMembers(o)
	if err != nil {
		return err
	}
	if err := WriteLength(w, uint64(len(members))); err != nil {
		return err
	}
	for _, m := range members {
		if err := writeRDBString(w, m); err != nil {
			return err
		}
	}
	return nil
}

func readSetHTPayload(r io.Reader) (*objval.Object, error) {
	count, _, _, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	set := objval.NewSet()
	for i := uint64(0); i < count; i++ {
		m, err := readRDBString(r)
		if err != nil {
			return nil, err
		}
		if _, err := objval.SetAdd(set, m); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// writeSetIntsetPayload writes the INTSET form as a single
// length-prefixed (possibly LZF-compressed) blob.
func writeSetIntsetPayload(w io.Writer, o *objval.Object) error {
	members, err := objval.SetMembers(o)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteLength(&buf, uint64(len(members))); err != nil {
		return err
	}
	for _, m := range members {
		n, err := strconv.ParseInt(string(m), 10, 64)
		if err != nil {
			return Error.New("intset member %q is not an integer", m)
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(n))
		if _, err := buf.Write(b[:]); err != nil {
			return err
		}
	}
	return writeBlob(w, buf.Bytes())
}

func readSetIntsetPayload(r io.Reader) (*objval.Object, error) {
	raw, err := readBlobBytes(r)
	if err != nil {
		return nil, err
	}
	br := bytes.NewReader(raw)
	count, _, _, err := ReadLength(br)
	if err != nil {
		return nil, err
	}
	set := objval.NewSet()
	for i := uint64(0); i < count; i++ {
		var b [8]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return nil, wrapShortRead(err)
		}
		n := int64(binary.LittleEndian.Uint64(b[:]))
		if _, err := objval.SetAdd(set, []byte(strconv.FormatInt(n, 10))); err != nil {
			return nil, err
		}
	}
	return set, nil
}
