// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package beio

import (
	"errors"
	"io"
)

// MemWriter is an in-memory io.WriteSeeker.
// Seeking past the end and writing fills the gap with zeros.
type MemWriter struct {
	buf []byte
	pos int
}

func (m *MemWriter) Bytes() []byte { return m.buf }

func (m *MemWriter) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		if need > cap(m.buf) {
			grown := make([]byte, need, max(need, 2*cap(m.buf)))
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:need]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *MemWriter) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("MemWriter.Seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("MemWriter.Seek: negative position")
	}
	m.pos = int(abs)
	return abs, nil
}
