// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package mixer

import (
	"encoding/binary"
	"io"
)

type reader struct {
	m   *Mixer
	buf []int16
}

// Reader pulls 16-bit little-endian stereo bytes from the mixer, in whole frames.
// It never returns io.EOF.
func Reader(m *Mixer) io.Reader {
	return &reader{m: m}
}

func (r *reader) Read(p []byte) (int, error) {
	n := len(p) / 4 * 2
	if n == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(r.buf) < n {
		r.buf = make([]int16, n)
	}
	buf := r.buf[:n]
	r.m.Process(buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(s))
	}
	return 2 * n, nil
}
