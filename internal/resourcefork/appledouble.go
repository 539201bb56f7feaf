// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resourcefork

import (
	"encoding/binary"
	"io"
)

// ForkOffset finds the resource fork inside an AppleDouble or AppleSingle file.
// Anything else is assumed to be a bare fork at offset 0.
func ForkOffset(r io.ReaderAt) int64 {
	header := make([]byte, 26)
	n, _ := r.ReadAt(header, 0)
	if n < len(header) {
		return 0
	}
	switch string(header[:4]) {
	case "\x00\x05\x16\x07", "\x00\x05\x16\x00":
	default:
		return 0
	}
	nrec := int(binary.BigEndian.Uint16(header[24:]))
	recList := make([]byte, 12*nrec)
	n, _ = r.ReadAt(recList, 26)
	if n != len(recList) {
		return 0
	}
	for ; len(recList) > 0; recList = recList[12:] {
		// entry 2 is the resource fork, and an empty fork is 286 bytes
		if binary.BigEndian.Uint32(recList) == 2 && binary.BigEndian.Uint32(recList[8:]) >= 286 {
			return int64(binary.BigEndian.Uint32(recList[4:]))
		}
	}
	return 0
}
