// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package sndfmt

import (
	"fmt"
	"math"

	"github.com/elliotnunn/MacShim/internal/beio"
	"github.com/elliotnunn/MacShim/internal/codec"
)

// commandList is a format 1 preamble with one soundCmd pointing just past itself
var commandList = [20]byte{
	0, 1, // format
	0, 1, // modifier count
	0, sampledSynth, // modifier
	0, 0, 0, 0, // init bits
	0, 1, // command count
	0x80, soundCmd, // with the offset bit set
	0, 0, // param1
	0, 0, 0, 20, // param2
}

// Encode wraps sample data in a format 1 resource.
// The header encoding is chosen to suit info:
// 8-bit mono uses the standard header,
// little-endian 16-bit uses the native header,
// compressed data uses the compressed header,
// and anything else uses the extended header.
func Encode(info Info, data []byte) ([]byte, error) {
	var mw beio.MemWriter
	w := beio.NewWriter(&mw)
	w.WriteRaw(commandList[:])
	if err := writeHeader(w, info, data); err != nil {
		return nil, err
	}
	return mw.Bytes(), w.Err()
}

// EncodeStandalone is like Encode but without the command list
func EncodeStandalone(info Info, data []byte) ([]byte, error) {
	var mw beio.MemWriter
	w := beio.NewWriter(&mw)
	w.U16(formatStandalone)
	if err := writeHeader(w, info, data); err != nil {
		return nil, err
	}
	return mw.Bytes(), w.Err()
}

func fixedRate(rate float64) (uint32, error) {
	f := rate * 65536
	if !(f >= 0 && f <= math.MaxUint32) {
		return 0, fmt.Errorf("%w: sample rate %v", ErrUnsupported, rate)
	}
	return uint32(f), nil
}

func writeHeader(w *beio.Writer, info Info, data []byte) error {
	rate, err := fixedRate(info.SampleRate)
	if err != nil {
		return err
	}
	h := soundHeader{
		SampleRate: rate,
		LoopStart:  info.LoopStart,
		LoopEnd:    info.LoopEnd,
		BaseNote:   uint8(info.BaseNote),
	}

	switch {
	case info.Compressed:
		c, err := codec.Get(info.Compression)
		if err != nil {
			return err
		}
		unit := info.Channels * c.BytesPerPacket()
		if unit == 0 || len(data)%unit != 0 {
			return fmt.Errorf("%w: %d bytes is not a whole number of packets", ErrFormat, len(data))
		}
		h.Encoding = encCompressed
		h.Length = int32(info.Channels)
		w.WriteStruct(&h)
		w.I32(int32(len(data) / unit))
		w.Write80BitFloat(info.SampleRate)
		w.U32(0)
		w.U32(info.Compression)
		w.WriteRaw(make([]byte, 20))

	case info.BitDepth == 8 && info.Channels == 1:
		h.Encoding = encStandard
		h.Length = int32(len(data))
		w.WriteStruct(&h)

	case info.BitDepth == 16 && !info.BigEndian && (info.Channels == 1 || info.Channels == 2):
		h.Encoding = encNativeMono + uint8(info.Channels-1)
		h.Length = int32(len(data))
		w.WriteStruct(&h)

	case info.BitDepth == 8 || info.BitDepth == 16:
		if !info.BigEndian && info.BitDepth == 16 {
			return fmt.Errorf("%w: little-endian PCM with %d channels", ErrUnsupported, info.Channels)
		}
		frame := info.Channels * info.BitDepth / 8
		if frame == 0 || len(data)%frame != 0 {
			return fmt.Errorf("%w: %d bytes is not a whole number of frames", ErrFormat, len(data))
		}
		h.Encoding = encExtended
		h.Length = int32(info.Channels)
		w.WriteStruct(&h)
		w.I32(int32(len(data) / frame))
		w.Write80BitFloat(info.SampleRate)
		w.WriteRaw(make([]byte, 12))
		w.I16(int16(info.BitDepth))
		w.WriteRaw(make([]byte, 14))

	default:
		return fmt.Errorf("%w: %d-bit PCM", ErrUnsupported, info.BitDepth)
	}
	w.WriteRaw(data)
	return w.Err()
}
