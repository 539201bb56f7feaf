// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package codec decompresses the packet formats found in sampled sounds.
// Every decoder emits interleaved little-endian 16-bit PCM.
package codec

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCodec = errors.New("unknown audio codec")
	ErrLength       = errors.New("buffer length does not match packet count")
)

// Four-character compression tags
const (
	TagMACE3 uint32 = 0x4d414333 // 'MAC3'
	TagIMA4  uint32 = 0x696d6134 // 'ima4'
	TagULaw  uint32 = 0x756c6177 // 'ulaw'
	TagALaw  uint32 = 0x616c6177 // 'alaw'
)

type Codec interface {
	SamplesPerPacket() int // per channel
	BytesPerPacket() int   // per channel
	AIFFBitDepth() int

	// Decode expands whole packets from in, which must fill out exactly
	Decode(nChannels int, in, out []byte) error
}

// Get returns a fresh codec. Tag 0 means MACE-3.
func Get(tag uint32) (Codec, error) {
	switch tag {
	case 0, TagMACE3:
		return mace3{}, nil
	case TagIMA4:
		return ima4{}, nil
	case TagULaw:
		return xlaw{table: &ulawTable}, nil
	case TagALaw:
		return xlaw{table: &alawTable}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, fourCC(tag))
}

// DecodedLength is the size of the PCM that nPackets of compressed data expand to
func DecodedLength(c Codec, nChannels, nPackets int) int {
	return nChannels * nPackets * c.SamplesPerPacket() * 2
}

// packets checks the buffers and returns the number of packets per channel
func packets(c Codec, nChannels int, in, out []byte) (int, error) {
	if nChannels < 1 {
		return 0, fmt.Errorf("%w: %d channels", ErrLength, nChannels)
	}
	unit := nChannels * c.BytesPerPacket()
	if len(in)%unit != 0 {
		return 0, fmt.Errorf("%w: %d input bytes is not a multiple of %d", ErrLength, len(in), unit)
	}
	n := len(in) / unit
	if want := DecodedLength(c, nChannels, n); len(out) != want {
		return 0, fmt.Errorf("%w: output is %d bytes, want %d", ErrLength, len(out), want)
	}
	return n, nil
}

func putSample(out []byte, i int, v int16) {
	out[2*i] = byte(v)
	out[2*i+1] = byte(uint16(v) >> 8)
}

func fourCC(tag uint32) string {
	return string([]byte{byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag)})
}
