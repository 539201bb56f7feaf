// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package beio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-restruct/restruct"
)

// Writer is the output counterpart of Reader.
// The first error sticks and is reported by Err and every later write.
type Writer struct {
	w   io.WriteSeeker
	err error
	buf [8]byte
}

func NewWriter(w io.WriteSeeker) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Err() error { return w.err }

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	w.err = err
	return n, err
}

func (w *Writer) WriteRaw(p []byte) error {
	_, err := w.Write(p)
	return err
}

func (w *Writer) U8(v uint8) error {
	w.buf[0] = v
	return w.WriteRaw(w.buf[:1])
}

func (w *Writer) I8(v int8) error { return w.U8(uint8(v)) }

func (w *Writer) U16(v uint16) error {
	binary.BigEndian.PutUint16(w.buf[:], v)
	return w.WriteRaw(w.buf[:2])
}

func (w *Writer) I16(v int16) error { return w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) error {
	binary.BigEndian.PutUint32(w.buf[:], v)
	return w.WriteRaw(w.buf[:4])
}

func (w *Writer) I32(v int32) error { return w.U32(uint32(v)) }

func (w *Writer) U64(v uint64) error {
	binary.BigEndian.PutUint64(w.buf[:], v)
	return w.WriteRaw(w.buf[:8])
}

func (w *Writer) F32(v float32) error { return w.U32(math.Float32bits(v)) }

func (w *Writer) Write80BitFloat(f float64) error {
	b := ToExtended(f)
	return w.WriteRaw(b[:])
}

// WriteStruct packs a fixed-layout big-endian structure
func (w *Writer) WriteStruct(v any) error {
	b, err := restruct.Pack(binary.BigEndian, v)
	if err != nil {
		return err
	}
	return w.WriteRaw(b)
}

// WritePascalString mirrors Reader.ReadPascalString, zero-filling the alignment
func (w *Writer) WritePascalString(s string, pad int) error {
	raw, err := ToMacRoman(s)
	if err != nil {
		return err
	}
	if len(raw) > 255 {
		return fmt.Errorf("%w: %q", ErrStringTooLong, s)
	}
	w.U8(uint8(len(raw)))
	w.WriteRaw(raw)
	for range padding(1+len(raw), pad) {
		w.U8(0)
	}
	return w.err
}

// WriteRawString writes MacRoman text with no length prefix
func (w *Writer) WriteRawString(s string) error {
	raw, err := ToMacRoman(s)
	if err != nil {
		return err
	}
	return w.WriteRaw(raw)
}

func (w *Writer) Tell() int64 {
	off, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return -1
	}
	return off
}

func (w *Writer) Goto(off int64) error {
	if w.err != nil {
		return w.err
	}
	_, w.err = w.w.Seek(off, io.SeekStart)
	return w.err
}

// Chunk is an open IFF-style chunk whose length is not yet known
type Chunk struct {
	w      *Writer
	lenPos int64
}

// BeginChunk writes the tag and a placeholder length
func (w *Writer) BeginChunk(tag uint32) *Chunk {
	w.U32(tag)
	c := &Chunk{w: w, lenPos: w.Tell()}
	w.U32(0x234c454e) // '#LEN'
	return c
}

// End backpatches the chunk length and appends a pad byte if it is odd.
// The pad byte is not counted in the length.
func (c *Chunk) End() error {
	w := c.w
	end := w.Tell()
	length := end - c.lenPos - 4
	if length&1 != 0 {
		w.U8(0)
		end++
	}
	w.Goto(c.lenPos)
	w.U32(uint32(length))
	w.Goto(end)
	return w.err
}
