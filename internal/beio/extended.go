// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package beio

import (
	"encoding/binary"
	"math"
)

// FromExtended converts a 10-byte 80-bit float to float64
func FromExtended(b []byte) float64 {
	se := binary.BigEndian.Uint16(b)
	mant := binary.BigEndian.Uint64(b[2:])
	exp := int(se & 0x7fff)
	neg := se&0x8000 != 0

	var f float64
	switch {
	case exp == 0 && mant == 0:
		f = 0
	case exp == 0x7fff:
		if mant<<1 == 0 {
			f = math.Inf(1)
		} else {
			return math.NaN()
		}
	default:
		f = math.Ldexp(float64(mant), exp-16383-63)
	}
	if neg {
		f = -f
	}
	return f
}

// ToExtended converts a float64 to the 10-byte 80-bit representation
func ToExtended(f float64) [10]byte {
	var b [10]byte
	var se uint16
	if math.Signbit(f) {
		se = 0x8000
		f = -f
	}

	switch {
	case f == 0:
	case math.IsInf(f, 0):
		se |= 0x7fff
		binary.BigEndian.PutUint64(b[2:], 1<<63)
	case math.IsNaN(f):
		se |= 0x7fff
		binary.BigEndian.PutUint64(b[2:], 0xc000000000000000)
	default:
		frac, exp := math.Frexp(f) // f = frac * 2**exp, 0.5 <= frac < 1
		se |= uint16(exp - 1 + 16383)
		binary.BigEndian.PutUint64(b[2:], uint64(math.Ldexp(frac, 64)))
	}
	binary.BigEndian.PutUint16(b[:], se)
	return b
}
