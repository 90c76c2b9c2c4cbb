// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package lzf implements LZF compression and decompression, the format
// used by the RDB encoded-object sub-encoding 3. No widely used Go
// library implements this exact wire format (klauspost/compress and
// pierrec/lz4 are LZ4/zstd/gzip family, a different framing entirely),
// so this is a from-scratch implementation of the classic liblzf
// control-byte grammar: a control byte is either a literal run length
// (values 0..31, meaning 1..32 raw bytes follow) or a back-reference
// (length + distance, distance up to 8192 bytes, length up to 264
// bytes).
package lzf

import "github.com/zeebo/errs"

// Error is the class for all lzf errors.
var Error = errs.Class("lzf")

const (
	maxLiteralRun = 32
	maxOffset     = 1 << 13 // 8192
	maxMatchLen   = 264     // 2 + 7 + 255
	hashBits      = 16
	hashSize      = 1 << hashBits
	minMatch      = 3
)

func hash3(b []byte) uint32 {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	v *= 2654435761
	return v >> (32 - hashBits)
}

// Compress returns the LZF encoding of src. It returns nil if src is too
// short to benefit or if the result would not be smaller than src --
// matching real LZF's "give up and store literal" behavior; callers
// should fall back to storing src uncompressed in that case.
func Compress(src []byte) []byte {
	n := len(src)
	if n < minMatch {
		return nil
	}

	out := make([]byte, 0, n)
	htab := make([]int32, hashSize)
	for i := range htab {
		htab[i] = -1
	}

	litStart := 0
	flushLiterals := func(end int) {
		for litStart < end {
			run := end - litStart
			if run > maxLiteralRun {
				run = maxLiteralRun
			}
			out = append(out, byte(run-1))
			out = append(out, src[litStart:litStart+run]...)
			litStart += run
		}
	}

	i := 0
	for i+minMatch <= n {
		h := hash3(src[i:])
		ref := int(htab[h])
		htab[h] = int32(i)

		if ref >= 0 && i-ref <= maxOffset && ref+2 < n &&
			src[ref] == src[i] && src[ref+1] == src[i+1] && src[ref+2] == src[i+2] {
			matchLen := 3
			maxLen := n - i
			if maxLen > maxMatchLen {
				maxLen = maxMatchLen
			}
			for matchLen < maxLen && src[ref+matchLen] == src[i+matchLen] {
				matchLen++
			}

			flushLiterals(i)

			off := i - ref - 1
			l := matchLen - 2
			if l < 7 {
				out = append(out, byte(l<<5|(off>>8)))
			} else {
				out = append(out, byte(7<<5|(off>>8)))
				out = append(out, byte(l-7))
			}
			out = append(out, byte(off))

			i += matchLen
			litStart = i
			continue
		}
		i++
	}
	flushLiterals(n)

	if len(out) >= n {
		return nil
	}
	return out
}

// Decompress expands src, which must decode to exactly dstLen bytes.
func Decompress(src []byte, dstLen int) ([]byte, error) {
	out := make([]byte, 0, dstLen)
	i := 0
	for i < len(src) {
		ctrl := int(src[i])
		i++
		if ctrl < maxLiteralRun {
			run := ctrl + 1
			if i+run > len(src) {
				return nil, Error.New("truncated literal run")
			}
			out = append(out, src[i:i+run]...)
			i += run
			continue
		}

		length := ctrl >> 5
		if length == 7 {
			if i >= len(src) {
				return nil, Error.New("truncated match length byte")
			}
			length += int(src[i])
			i++
		}
		if i >= len(src) {
			return nil, Error.New("truncated match offset byte")
		}
		offset := (ctrl&0x1f)<<8 | int(src[i])
		i++
		length += 2

		refPos := len(out) - offset - 1
		if refPos < 0 {
			return nil, Error.New("back-reference points before start of output")
		}
		for k := 0; k < length; k++ {
			out = append(out, out[refPos+k])
		}
	}
	if len(out) != dstLen {
		return nil, Error.New("decompressed length mismatch: got %d want %d", len(out), dstLen)
	}
	return out, nil
}
