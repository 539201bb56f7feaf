// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package beio reads and writes big-endian binary streams
package beio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-restruct/restruct"
)

var ErrEOS = errors.New("read past end of stream")

// Reader is a cursor over a seekable stream.
// Every multi-byte scalar is big-endian.
type Reader struct {
	r   io.ReadSeeker
	buf [8]byte
}

func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

func NewBytesReader(p []byte) *Reader {
	return &Reader{r: bytes.NewReader(p)}
}

// Read fills p completely or fails
func (r *Reader) Read(p []byte) (int, error) {
	n, err := io.ReadFull(r.r, p)
	if err != nil {
		return n, fmt.Errorf("%w: wanted %d bytes, got %d", ErrEOS, len(p), n)
	}
	return n, nil
}

func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrEOS, n)
	}
	p := make([]byte, n)
	_, err := r.Read(p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Reader) scalar(n int) ([]byte, error) {
	_, err := r.Read(r.buf[:n])
	return r.buf[:n], err
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.scalar(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.scalar(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.scalar(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.scalar(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// Read80BitFloat reads an IEEE 754 extended-precision value (as used by AIFF)
func (r *Reader) Read80BitFloat() (float64, error) {
	b, err := r.Bytes(10)
	if err != nil {
		return 0, err
	}
	return FromExtended(b), nil
}

// ReadStruct unpacks a fixed-layout big-endian structure
func (r *Reader) ReadStruct(v any) error {
	n, err := restruct.SizeOf(v)
	if err != nil {
		return err
	}
	b, err := r.Bytes(n)
	if err != nil {
		return err
	}
	return restruct.Unpack(b, binary.BigEndian, v)
}

func (r *Reader) Tell() int64 {
	off, err := r.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	return off
}

// Goto seeks to an absolute offset
func (r *Reader) Goto(off int64) error {
	_, err := r.r.Seek(off, io.SeekStart)
	return err
}

// Skip moves the cursor forward without checking for the end of the stream.
// A later read will fail instead.
func (r *Reader) Skip(n int64) error {
	_, err := r.r.Seek(n, io.SeekCurrent)
	return err
}

// Guard saves the cursor and returns a function that restores it:
//
//	defer r.Guard()()
func (r *Reader) Guard() func() {
	saved := r.Tell()
	return func() { r.Goto(saved) }
}

// Size returns the total length of the stream without moving the cursor
func (r *Reader) Size() (int64, error) {
	cur := r.Tell()
	end, err := r.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = r.r.Seek(cur, io.SeekStart)
	return end, err
}
