// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resourcefork

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
)

func mustBuild(t *testing.T, entries ...Entry) []byte {
	t.Helper()
	b, err := Build(entries)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHello(t *testing.T) {
	text := MustType("TEXT")
	fork, err := Parse(bytes.NewReader(mustBuild(t, Entry{Type: text, ID: 128, Data: []byte("HELLO")})))
	if err != nil {
		t.Fatal(err)
	}
	r, ok := fork.Lookup(text, 128)
	if !ok {
		t.Fatal("TEXT 128 not found")
	}
	if r.Size != 5 || r.DataOffset != 256+4 || r.Name != "" {
		t.Errorf("unexpected metadata %+v", r)
	}
	data, err := fork.ReadData(r)
	if err != nil || string(data) != "HELLO" {
		t.Errorf("expected HELLO, got %q %v", data, err)
	}
}

func TestLarge(t *testing.T) {
	zero, big := MustType("0b  "), MustType("99b ")
	fsys := mustFS(t, mustBuild(t,
		Entry{Type: zero, ID: -32768},
		Entry{Type: zero, ID: 32767},
		Entry{Type: big, ID: -32768, Data: bytes.Repeat([]byte{0xee}, 99)},
		Entry{Type: big, ID: 32767, Data: bytes.Repeat([]byte{0xee}, 99)},
	))
	err := fstest.TestFS(fsys, "0b  /-32768", "0b  /32767", "99b /-32768", "99b /32767")
	if err != nil {
		t.Error(err)
	}

	s, err := fs.Stat(fsys, "0b  /-32768")
	if err != nil {
		t.Error(err)
	} else if s.Size() != 0 {
		t.Errorf("expected resource of type '0b  ' to be 0 bytes, got %d", s.Size())
	}
	data, err := fs.ReadFile(fsys, "99b /-32768")
	if len(data) != 99 || len(bytes.ReplaceAll(data, []byte{0xee}, nil)) != 0 {
		t.Errorf("expected resource of type '99b ' to contain 0xee x 99, got %x %v", data, err)
	}
}

func TestEmpty(t *testing.T) {
	fsys := mustFS(t, mustBuild(t))
	if err := fstest.TestFS(fsys); err != nil {
		t.Error(err)
	}
}

func TestNamed(t *testing.T) {
	blan := MustType("blan")
	fork, err := Parse(bytes.NewReader(mustBuild(t,
		Entry{Type: blan, ID: 128, Name: "Bläh"},
		Entry{Type: MustType("long"), ID: 128, Name: string(bytes.Repeat([]byte("x"), 255))},
	)))
	if err != nil {
		t.Fatal(err)
	}
	if r, ok := fork.LookupName(blan, "Bläh"); !ok || r.ID != 128 {
		t.Errorf("expected MacRoman name to survive, got %+v", r)
	}
	if err := fstest.TestFS(fork.FS(), "blan/128", "long/128"); err != nil {
		t.Error(err)
	}
}

func TestOrder(t *testing.T) {
	a, b := MustType("AAAA"), MustType("zzzz")
	fork, err := Parse(bytes.NewReader(mustBuild(t,
		Entry{Type: b, ID: 5},
		Entry{Type: a, ID: 200},
		Entry{Type: a, ID: -3},
	)))
	if err != nil {
		t.Fatal(err)
	}
	if got := fork.Types(); len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("types out of order: %v", got)
	}
	if got := fork.IDs(a); len(got) != 2 || got[0] != -3 || got[1] != 200 {
		t.Errorf("ids out of order: %v", got)
	}
}

func TestCompressedRejected(t *testing.T) {
	b := mustBuild(t, Entry{Type: MustType("PICT"), ID: 1, Flags: 0x01, Data: []byte{1}})
	_, err := Parse(bytes.NewReader(b))
	if !errors.Is(err, ErrCompressed) {
		t.Errorf("expected ErrCompressed, got %v", err)
	}
}

func TestBadDataOffset(t *testing.T) {
	b := mustBuild(t, Entry{Type: MustType("TEXT"), ID: 1})
	binary.BigEndian.PutUint32(b, 300)
	_, err := Parse(bytes.NewReader(b))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestTruncated(t *testing.T) {
	b := mustBuild(t, Entry{Type: MustType("TEXT"), ID: 1, Data: []byte("abc")})
	_, err := Parse(bytes.NewReader(b[:len(b)-10]))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestHugeLength(t *testing.T) {
	b := mustBuild(t, Entry{Type: MustType("TEXT"), ID: 1, Data: []byte("abc")})
	dataOff := binary.BigEndian.Uint32(b)
	binary.BigEndian.PutUint32(b[dataOff:], 0x7fffffff)
	_, err := Parse(bytes.NewReader(b))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}

	fork, err := Parse(bytes.NewReader(mustBuild(t, Entry{Type: MustType("TEXT"), ID: 1, Data: []byte("abc")})))
	if err != nil {
		t.Fatal(err)
	}
	r, _ := fork.Lookup(MustType("TEXT"), 1)
	r.Size = 0x7fffffff
	if _, err := fork.ReadData(r); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ReadData to refuse an oversized resource, got %v", err)
	}
}

func TestAppleDouble(t *testing.T) {
	fork := mustBuild(t, Entry{Type: MustType("TEXT"), ID: 128, Data: []byte("HELLO")})
	const off = 26 + 12 + 10
	hdr := make([]byte, off)
	copy(hdr, "\x00\x05\x16\x07\x00\x02\x00\x00")
	binary.BigEndian.PutUint16(hdr[24:], 1)
	binary.BigEndian.PutUint32(hdr[26:], 2)
	binary.BigEndian.PutUint32(hdr[30:], off)
	binary.BigEndian.PutUint32(hdr[34:], uint32(len(fork)))
	file := append(hdr, fork...)

	base := ForkOffset(bytes.NewReader(file))
	if base != off {
		t.Fatalf("expected fork at %d, got %d", off, base)
	}
	f, err := ParseAt(bytes.NewReader(file), base)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := f.Lookup(MustType("TEXT"), 128)
	if data, _ := f.ReadData(r); string(data) != "HELLO" {
		t.Errorf("expected HELLO, got %q", data)
	}

	if ForkOffset(bytes.NewReader(fork)) != 0 {
		t.Error("a bare fork should be found at offset 0")
	}
}

func TestBuildDuplicate(t *testing.T) {
	_, err := Build([]Entry{{Type: 1, ID: 1}, {Type: 1, ID: 1}})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func mustFS(t *testing.T, b []byte) fs.FS {
	t.Helper()
	fork, err := Parse(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return fork.FS()
}
