// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package codec

import "encoding/binary"

// ima4 is the QuickTime flavour of IMA ADPCM: 34-byte packets, one channel each,
// with the channels taking turns
type ima4 struct{}

func (ima4) SamplesPerPacket() int { return 64 }
func (ima4) BytesPerPacket() int   { return 34 }
func (ima4) AIFFBitDepth() int     { return 16 }

var imaStepTable = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

var imaIndexTable = [16]int{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

func (c ima4) Decode(nChannels int, in, out []byte) error {
	n, err := packets(c, nChannels, in, out)
	if err != nil {
		return err
	}
	for p := range n {
		for ch := range nChannels {
			pkt := in[(p*nChannels+ch)*34:][:34]
			decodeIMAPacket(pkt, func(i int, v int16) {
				putSample(out, (p*64+i)*nChannels+ch, v)
			})
		}
	}
	return nil
}

// decodeIMAPacket resets the predictor from the packet header,
// then expands 64 nibbles, low nibble first
func decodeIMAPacket(pkt []byte, emit func(int, int16)) {
	h := binary.BigEndian.Uint16(pkt)
	pred := int(int16(h & 0xff80))
	index := min(int(h&0x7f), 88)
	for i, b := range pkt[2:] {
		for half, nib := range [2]byte{b & 0xf, b >> 4} {
			step := imaStepTable[index]
			diff := step >> 3
			if nib&1 != 0 {
				diff += step >> 2
			}
			if nib&2 != 0 {
				diff += step >> 1
			}
			if nib&4 != 0 {
				diff += step
			}
			if nib&8 != 0 {
				diff = -diff
			}
			pred = max(-32768, min(32767, pred+diff))
			index = max(0, min(88, index+imaIndexTable[nib]))
			emit(2*i+half, int16(pred))
		}
	}
}
