// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"slices"
	"testing"
)

func samples(b []byte) []int16 {
	ret := make([]int16, len(b)/2)
	for i := range ret {
		ret[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return ret
}

func TestGet(t *testing.T) {
	cases := []struct {
		tag              uint32
		spp, bpp, aiffBD int
	}{
		{0, 6, 2, 8},
		{TagMACE3, 6, 2, 8},
		{TagIMA4, 64, 34, 16},
		{TagULaw, 1, 1, 8},
		{TagALaw, 1, 1, 8},
	}
	for _, c := range cases {
		cd, err := Get(c.tag)
		if err != nil {
			t.Fatalf("%q: %v", fourCC(c.tag), err)
		}
		if cd.SamplesPerPacket() != c.spp || cd.BytesPerPacket() != c.bpp || cd.AIFFBitDepth() != c.aiffBD {
			t.Errorf("%q: got %d/%d/%d", fourCC(c.tag), cd.SamplesPerPacket(), cd.BytesPerPacket(), cd.AIFFBitDepth())
		}
	}
	if _, err := Get(0x4d414336); !errors.Is(err, ErrUnknownCodec) { // 'MAC6'
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestLengths(t *testing.T) {
	c, _ := Get(TagIMA4)
	if err := c.Decode(2, make([]byte, 34), make([]byte, 256)); !errors.Is(err, ErrLength) {
		t.Errorf("a stereo stream needs packets in pairs, got %v", err)
	}
	if err := c.Decode(1, make([]byte, 34), make([]byte, 100)); !errors.Is(err, ErrLength) {
		t.Errorf("expected the output size to be checked, got %v", err)
	}
	if err := c.Decode(1, nil, nil); err != nil {
		t.Errorf("empty input should be fine, got %v", err)
	}
}

func TestXLaw(t *testing.T) {
	u, _ := Get(TagULaw)
	out := make([]byte, 6)
	if err := u.Decode(1, []byte{0xff, 0x00, 0x80}, out); err != nil {
		t.Fatal(err)
	}
	if got := samples(out); got[0] != 0 || got[1] != -32124 || got[2] != 32124 {
		t.Errorf("unexpected mu-law expansion %v", got)
	}

	a, _ := Get(TagALaw)
	out = make([]byte, 4)
	if err := a.Decode(2, []byte{0xd5, 0x55}, out); err != nil {
		t.Fatal(err)
	}
	if got := samples(out); got[0] != 8 || got[1] != -8 {
		t.Errorf("unexpected A-law expansion %v", got)
	}
}

func TestIMA4(t *testing.T) {
	pkt := make([]byte, 34)
	binary.BigEndian.PutUint16(pkt, 0x1000) // predictor 4096, index 0
	pkt[2] = 0x07                            // +11 then +0
	c, _ := Get(TagIMA4)
	out := make([]byte, 128)
	if err := c.Decode(1, pkt, out); err != nil {
		t.Fatal(err)
	}
	got := samples(out)
	if got[0] != 4096+11 {
		t.Errorf("first sample: expected %d, got %d", 4096+11, got[0])
	}
	// step index is now 8 (step 16), nibble 0 adds 16>>3
	if got[1] != 4096+11+2 {
		t.Errorf("second sample: expected %d, got %d", 4096+11+2, got[1])
	}
}

func TestIMA4Interleave(t *testing.T) {
	in := make([]byte, 68)
	binary.BigEndian.PutUint16(in, 0x0100)
	binary.BigEndian.PutUint16(in[34:], 0xff00) // negative predictor
	c, _ := Get(TagIMA4)
	out := make([]byte, 256)
	if err := c.Decode(2, in, out); err != nil {
		t.Fatal(err)
	}
	got := samples(out)
	if got[0] != 256 || got[1] != -256 {
		t.Errorf("channels should interleave in the output: %v", got[:4])
	}
}

func TestMACE3(t *testing.T) {
	c, _ := Get(TagMACE3)
	in := make([]byte, 2*2*50) // stereo, 50 packets of silence
	out := make([]byte, DecodedLength(c, 2, 50))
	if err := c.Decode(2, in, out); err != nil {
		t.Fatal(err)
	}
	got := samples(out)
	if got[0] != 0 {
		t.Errorf("decoder should start from silence, got %d", got[0])
	}
	for i := 0; i < len(got); i += 2 {
		if got[i] != got[i+1] {
			t.Fatalf("identical channels diverged at frame %d", i/2)
		}
		if got[i]&0xff != int16(uint16(got[i])>>8) {
			t.Fatalf("low byte should mirror the high byte, got %#x", got[i])
		}
	}

	if err := c.Decode(1, make([]byte, 3), make([]byte, 18)); !errors.Is(err, ErrLength) {
		t.Errorf("expected ErrLength for a partial packet, got %v", err)
	}
}

func TestMACETables(t *testing.T) {
	if maceTab2[4] != 39 || maceTab2[6] != 216 || maceTab2[7] != 346 {
		t.Errorf("second quantiser row is %v", maceTab2[4:8])
	}
	if maceTab2[127*4] != 9568 || maceTab4[127*2] != 16615 {
		t.Errorf("last quantiser rows are %v and %v", maceTab2[127*4:], maceTab4[127*2:])
	}
}

func maceDecode(t *testing.T, in []byte) []int16 {
	t.Helper()
	c, _ := Get(TagMACE3)
	out := make([]byte, DecodedLength(c, 1, len(in)/2))
	if err := c.Decode(1, in, out); err != nil {
		t.Fatal(err)
	}
	return samples(out)
}

func TestMACE3Golden(t *testing.T) {
	got := maceDecode(t, []byte{0x5a, 0xc3, 0xff, 0x07, 0x81, 0x3c, 0x00, 0xe6})
	want := []int16{
		0, 0, 257, 514, 771, 257, 257, 0, 0, -1, 0, 0,
		257, 257, -1, -1029, -1029, -515, -258, -1, 0, -258, -1, -1,
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMACE3DeepRows(t *testing.T) {
	var in []byte
	for range 10 {
		in = append(in, 0x6b, 0x6b, 0xe4, 0xe4)
	}
	got := maceDecode(t, in)
	want := []int16{21845, 19275, 16705, -17991, -15678, -20304}
	if tail := got[len(got)-6:]; !slices.Equal(tail, want) {
		t.Errorf("expected to end with %v, got %v", want, tail)
	}

	in = bytes.Repeat([]byte{0x6b}, 40)
	got = maceDecode(t, in)
	for i, s := range got[len(got)-6:] {
		if s != 32639 {
			t.Errorf("sample %d: expected saturation at 32639, got %d", i, s)
		}
	}
}
