// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package beio

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"testing/iotest"
)

func TestScalars(t *testing.T) {
	r := NewBytesReader([]byte{0x12, 0x34, 0xff, 0xfe, 0xde, 0xad, 0xbe, 0xef, 0x80})
	u16, _ := r.U16()
	i16, _ := r.I16()
	u32, _ := r.U32()
	i8, _ := r.I8()
	if u16 != 0x1234 || i16 != -2 || u32 != 0xdeadbeef || i8 != -128 {
		t.Errorf("got %#x %d %#x %d", u16, i16, u32, i8)
	}
	if r.Tell() != 9 {
		t.Errorf("expected cursor at 9, got %d", r.Tell())
	}
	_, err := r.U8()
	if !errors.Is(err, ErrEOS) {
		t.Errorf("expected ErrEOS past the end, got %v", err)
	}
}

func TestShortRead(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3}))
	if _, err := r.U32(); !errors.Is(err, ErrEOS) {
		t.Errorf("expected ErrEOS for a 3-byte U32, got %v", err)
	}
}

func TestGuard(t *testing.T) {
	r := NewBytesReader([]byte{0, 1, 2, 3, 4, 5})
	r.Skip(2)
	func() {
		defer r.Guard()()
		r.Goto(5)
		v, _ := r.U8()
		if v != 5 {
			t.Errorf("expected 5, got %d", v)
		}
	}()
	v, _ := r.U8()
	if v != 2 {
		t.Errorf("guard did not restore the cursor: read %d", v)
	}
}

func TestPascalString(t *testing.T) {
	cases := []struct {
		data   []byte
		pad    int
		expect string
		tell   int64
	}{
		{[]byte("\x03abcX"), 0, "abc", 4},
		{[]byte("\x03abcX"), 2, "abc", 4},
		{[]byte("\x02ab\x00X"), 2, "ab", 4},
		{[]byte("\x00\x00X"), 2, "", 2},
		{[]byte("\x01\xa5"), 1, "•", 2}, // MacRoman bullet
	}
	for _, c := range cases {
		r := NewBytesReader(c.data)
		s, err := r.ReadPascalString(c.pad)
		if err != nil {
			t.Errorf("%q: %v", c.data, err)
			continue
		}
		if s != c.expect || r.Tell() != c.tell {
			t.Errorf("%q pad %d: expected %q at %d, got %q at %d", c.data, c.pad, c.expect, c.tell, s, r.Tell())
		}
	}
}

func TestExtended(t *testing.T) {
	// 22254.54 Hz and 44100 Hz as they appear in real AIFF files
	cases := []struct {
		raw  [10]byte
		want float64
	}{
		{[10]byte{0x40, 0x0e, 0xac, 0x44, 0, 0, 0, 0, 0, 0}, 44100},
		{[10]byte{0x40, 0x0d, 0xad, 0xdd, 0x17, 0x45, 0xd1, 0x74, 0x5d, 0x18}, 22254.545454545454},
		{[10]byte{}, 0},
	}
	for _, c := range cases {
		got := FromExtended(c.raw[:])
		if math.Abs(got-c.want) > 1e-6 {
			t.Errorf("FromExtended(%x) = %v, want %v", c.raw, got, c.want)
		}
		if back := ToExtended(c.want); FromExtended(back[:]) != got {
			t.Errorf("ToExtended(%v) = %x does not round-trip", c.want, back)
		}
	}
}

func TestChunkBackpatch(t *testing.T) {
	var m MemWriter
	w := NewWriter(&m)
	form := w.BeginChunk(0x464f524d) // FORM
	w.U32(0x41494643)                // AIFC
	odd := w.BeginChunk(0x4e414d45)  // NAME
	w.WriteRawString("abc")
	odd.End()
	form.End()
	if w.Err() != nil {
		t.Fatal(w.Err())
	}

	expect := []byte("FORM\x00\x00\x00\x10AIFCNAME\x00\x00\x00\x03abc\x00")
	if !bytes.Equal(m.Bytes(), expect) {
		t.Errorf("expected %q, got %q", expect, m.Bytes())
	}
}

func TestStruct(t *testing.T) {
	var hdr struct {
		Zero     uint32
		Union    int32
		Rate     uint32
		Encoding uint8
	}
	r := NewReader(iotestSeeker(t, []byte{0, 0, 0, 0, 0, 0, 0, 2, 0x56, 0xee, 0x8b, 0xa3, 0xfe}))
	if err := r.ReadStruct(&hdr); err != nil {
		t.Fatal(err)
	}
	if hdr.Union != 2 || hdr.Rate != 0x56ee8ba3 || hdr.Encoding != 0xfe {
		t.Errorf("unexpected unpack %+v", hdr)
	}
}

// iotestSeeker checks the data with iotest before handing out a seekable reader
func iotestSeeker(t *testing.T, p []byte) *bytes.Reader {
	if err := iotest.TestReader(bytes.NewReader(p), p); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(p)
}
