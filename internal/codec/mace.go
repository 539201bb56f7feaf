// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package codec

import (
	"bytes"

	"github.com/32bitkid/bitreader"
)

// mace3 is Apple's MACE 3:1: each 2-byte packet holds 6 samples
type mace3 struct{}

func (mace3) SamplesPerPacket() int { return 6 }
func (mace3) BytesPerPacket() int   { return 2 }
func (mace3) AIFFBitDepth() int     { return 8 }

type maceChannel struct {
	index int
	level int16
}

type maceTab struct {
	tab1   []int
	tab2   []int16 // rows of stride
	stride int
}

// one per 3-2-3 bit field, lowest bits first
var maceTabs = [3]maceTab{
	{maceTab1[:], maceTab2[:], 4},
	{maceTab3[:], maceTab4[:], 2},
	{maceTab1[:], maceTab2[:], 4},
}

func (ch *maceChannel) readTable(val uint8, t *maceTab) int16 {
	v := int(val)
	row := ((ch.index & 0x7f0) >> 4) * t.stride
	var cur int16
	if v < t.stride {
		cur = t.tab2[row+v]
	} else {
		cur = -1 - t.tab2[row+2*t.stride-v-1]
	}
	ch.index += t.tab1[v] - ch.index>>5
	if ch.index < 0 {
		ch.index = 0
	}
	return cur
}

// clip saturates asymmetrically, the negative limit is -32767
func clip(n int) int16 {
	switch {
	case n > 32767:
		return 32767
	case n < -32768:
		return -32767
	}
	return int16(n)
}

func (ch *maceChannel) chomp(val uint8, t *maceTab) int16 {
	cur := clip(int(ch.readTable(val, t)) + int(ch.level))
	ch.level = cur - cur>>3
	return int16(uint16(cur)&0xff00 | uint16(cur)>>8&0xff)
}

func (c mace3) Decode(nChannels int, in, out []byte) error {
	n, err := packets(c, nChannels, in, out)
	if err != nil {
		return err
	}
	chans := make([]maceChannel, nChannels)
	br := bitreader.NewReader(bytes.NewReader(in))
	var fields [3]uint8
	sample := 0 // per channel
	for range n {
		for ch := range chans {
			for k := range 2 {
				// MSB first, so the high field arrives first
				for f := 2; f >= 0; f-- {
					width := uint(3)
					if f == 1 {
						width = 2
					}
					fields[f], err = br.Read8(width)
					if err != nil {
						return err
					}
				}
				for f := range fields {
					putSample(out, (sample+3*k+f)*nChannels+ch, chans[ch].chomp(fields[f], &maceTabs[f]))
				}
			}
		}
		sample += 6
	}
	return nil
}
