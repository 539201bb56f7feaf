// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package codec

// xlaw expands G.711 mu-law or A-law, one byte per sample
type xlaw struct {
	table *[256]int16
}

func (xlaw) SamplesPerPacket() int { return 1 }
func (xlaw) BytesPerPacket() int   { return 1 }
func (xlaw) AIFFBitDepth() int     { return 8 }

var ulawTable, alawTable [256]int16

func init() {
	for i := range 256 {
		ulawTable[i] = ulawDecode(byte(i))
		alawTable[i] = alawDecode(byte(i))
	}
}

func ulawDecode(b byte) int16 {
	u := ^b
	t := (int(u&0x0f) << 3) + 0x84
	t <<= (u & 0x70) >> 4
	if u&0x80 != 0 {
		return int16(0x84 - t)
	}
	return int16(t - 0x84)
}

func alawDecode(b byte) int16 {
	a := b ^ 0x55
	t := int(a&0x0f) << 4
	switch seg := (a & 0x70) >> 4; seg {
	case 0:
		t += 8
	case 1:
		t += 0x108
	default:
		t += 0x108
		t <<= seg - 1
	}
	if a&0x80 != 0 {
		return int16(t)
	}
	return int16(-t)
}

func (c xlaw) Decode(nChannels int, in, out []byte) error {
	if _, err := packets(c, nChannels, in, out); err != nil {
		return err
	}
	for i, b := range in {
		putSample(out, i, c.table[b])
	}
	return nil
}
