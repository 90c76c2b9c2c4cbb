// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package primary

import (
	"bytes"
	"strconv"
)

// EncodeMultiBulk serializes args into the canonical RESP multi-bulk
// wire form used for both client replies and command propagation:
// "*argc\r\n" followed by "$len\r\n<bytes>\r\n" per argument.
func EncodeMultiBulk(args [][]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte('*')
	buf.WriteString(strconv.Itoa(len(args)))
	buf.WriteString("\r\n")
	for _, a := range args {
		buf.WriteByte('$')
		buf.WriteString(strconv.Itoa(len(a)))
		buf.WriteString("\r\n")
		buf.Write(a)
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

// selectCommand builds the "SELECT <dbid>" multi-bulk command emitted
// ahead of a propagated write when the propagation cursor's current
// database differs from the command's.
func selectCommand(db int) []byte {
	return EncodeMultiBulk([][]byte{[]byte("SELECT"), []byte(strconv.Itoa(db))})
}
