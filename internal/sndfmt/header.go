// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package sndfmt decodes and builds 'snd ' resources and AIFF files
package sndfmt

import (
	"errors"
	"fmt"

	"github.com/elliotnunn/MacShim/internal/beio"
	"github.com/elliotnunn/MacShim/internal/codec"
	"github.com/elliotnunn/MacShim/internal/oserr"
)

var (
	ErrFormat      = errors.New("malformed sound")
	ErrUnsupported = errors.New("unsupported sound")
)

// Compression tags that are not codecs
const (
	TagNone uint32 = 0x4e4f4e45 // 'NONE', signed big-endian
	TagTwos uint32 = 0x74776f73 // 'twos'
	TagSowt uint32 = 0x736f7774 // 'sowt'
	TagRaw  uint32 = 0x72617720 // 'raw ', unsigned 8-bit
)

// Resource formats
const (
	formatStandard   = 1
	formatHyperCard  = 2
	formatStandalone = 0x706f // 'po', just a sound header with no command list
)

// Header encodings
const (
	encStandard     = 0x00
	encNativeMono   = 0x10 // little-endian 16-bit PCM
	encNativeStereo = 0x11
	encCompressed   = 0xfe
	encExtended     = 0xff
)

const (
	sampledSynth = 5
	initMACE6    = 0x0400
	soundCmd     = 80
	bufferCmd    = 81
)

// Info is derived from a sound header and describes where the samples are
type Info struct {
	Channels    int
	Packets     int
	BitDepth    int // of the stored data, or as AIFF would record it for a codec
	BigEndian   bool
	SampleRate  float64
	Compressed  bool
	Compression uint32 // tag

	DataOffset         int // within the bytes the Info was parsed from
	CompressedLength   int
	DecompressedLength int

	BaseNote  int
	LoopStart uint32 // in packets
	LoopEnd   uint32
}

func (i Info) HasLoop() bool {
	return i.LoopEnd > i.LoopStart && i.LoopEnd-i.LoopStart > 1
}

// soundHeader is the 22 bytes common to every encoding
type soundHeader struct {
	Zero       uint32
	Length     int32 // byte count or channel count, depending on Encoding
	SampleRate uint32
	LoopStart  uint32
	LoopEnd    uint32
	Encoding   uint8
	BaseNote   uint8
}

const soundHeaderLen = 22

// GetSoundHeaderOffset finds the sampled sound header within a resource
func GetSoundHeaderOffset(snd []byte) (int, error) {
	r := beio.NewBytesReader(snd)
	format, err := r.I16()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", oserr.BadFormat, err)
	}
	switch format {
	case formatStandard:
		var pre struct {
			Modifiers int16
			Synth     int16
			Init      uint32
		}
		if err := r.ReadStruct(&pre); err != nil {
			return 0, fmt.Errorf("%w: %w", oserr.BadFormat, err)
		}
		if pre.Modifiers != 1 {
			return 0, fmt.Errorf("%w: %d modifiers", ErrUnsupported, pre.Modifiers)
		}
		if pre.Synth != sampledSynth {
			return 0, fmt.Errorf("%w: synth %d", ErrUnsupported, pre.Synth)
		}
		if pre.Init&initMACE6 != 0 {
			return 0, fmt.Errorf("%w: MACE-6", ErrUnsupported)
		}
	case formatHyperCard:
		r.Skip(2) // reference count
	case formatStandalone:
		return 2, nil
	default:
		return 0, fmt.Errorf("format %d: %w", format, oserr.BadFormat)
	}

	nCmds, err := r.I16()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", oserr.BadFormat, err)
	}
	for ; nCmds >= 1; nCmds-- {
		var c struct {
			Cmd    uint16
			Param1 int16
			Param2 int32
		}
		if err := r.ReadStruct(&c); err != nil {
			return 0, fmt.Errorf("%w: %w", oserr.BadFormat, err)
		}
		// high bit means param2 is an offset into the resource
		if cmd := c.Cmd & 0x7fff; cmd == bufferCmd || cmd == soundCmd {
			return int(c.Param2), nil
		}
	}
	return 0, fmt.Errorf("no sound command: %w", oserr.BadFormat)
}

// GetSoundInfo parses a sampled sound header. Info.DataOffset is relative to hdr.
func GetSoundInfo(hdr []byte) (Info, error) {
	r := beio.NewBytesReader(hdr)
	var h soundHeader
	if err := r.ReadStruct(&h); err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if h.Zero != 0 {
		return Info{}, fmt.Errorf("%w: sample pointer must be zero", ErrFormat)
	}

	info := Info{
		SampleRate: float64(h.SampleRate) / 65536,
		BaseNote:   int(h.BaseNote),
		LoopStart:  h.LoopStart,
		LoopEnd:    h.LoopEnd,
	}

	switch h.Encoding {
	case encStandard:
		info.Compression = TagRaw
		info.BitDepth = 8
		info.Channels = 1
		info.Packets = int(h.Length)
		info.CompressedLength = int(h.Length)
		info.DecompressedLength = int(h.Length)

	case encNativeMono, encNativeStereo:
		info.Compression = TagSowt
		info.BitDepth = 16
		info.Channels = 1 + int(h.Encoding-encNativeMono)
		info.Packets = int(h.Length) / (2 * info.Channels)
		info.CompressedLength = int(h.Length)
		info.DecompressedLength = int(h.Length)

	case encCompressed:
		var cmp struct {
			Packets   int32
			AIFFRate  [10]byte
			MarkerPtr uint32
			Format    uint32
			Reserved  [20]byte
		}
		if err := r.ReadStruct(&cmp); err != nil {
			return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		info.Compression = cmp.Format
		if info.Compression == 0 {
			info.Compression = codec.TagMACE3
		}
		c, err := codec.Get(info.Compression)
		if err != nil {
			return Info{}, err
		}
		info.Compressed = true
		info.Channels = int(h.Length)
		info.Packets = int(cmp.Packets)
		info.BitDepth = c.AIFFBitDepth()
		info.CompressedLength = info.Channels * info.Packets * c.BytesPerPacket()
		info.DecompressedLength = codec.DecodedLength(c, info.Channels, info.Packets)

	case encExtended:
		var ext struct {
			Packets  int32
			Reserved [22]byte
			BitDepth int16
			Future   [14]byte
		}
		if err := r.ReadStruct(&ext); err != nil {
			return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		info.BigEndian = true
		info.Channels = int(h.Length)
		info.Packets = int(ext.Packets)
		info.BitDepth = int(ext.BitDepth)
		info.Compression = TagTwos
		if info.BitDepth == 8 {
			info.Compression = TagRaw
		}
		info.CompressedLength = info.Channels * info.Packets * info.BitDepth / 8
		info.DecompressedLength = info.CompressedLength

	default:
		return Info{}, fmt.Errorf("%w: encoding %#02x", ErrFormat, h.Encoding)
	}

	if info.Channels < 1 || info.Packets < 0 {
		return Info{}, fmt.Errorf("%w: %d channels, %d packets", ErrFormat, info.Channels, info.Packets)
	}
	info.DataOffset = int(r.Tell())
	return info, nil
}

// GetSoundInfoFromSndResource parses a whole resource. Info.DataOffset is relative to snd.
func GetSoundInfoFromSndResource(snd []byte) (Info, error) {
	off, err := GetSoundHeaderOffset(snd)
	if err != nil {
		return Info{}, err
	}
	if off < 0 || off > len(snd) {
		return Info{}, fmt.Errorf("%w: header offset %d out of range", ErrFormat, off)
	}
	info, err := GetSoundInfo(snd[off:])
	if err != nil {
		return Info{}, err
	}
	info.DataOffset += off
	return info, nil
}

// Payload returns the stored sample bytes, compressed or not
func Payload(snd []byte, info Info) ([]byte, error) {
	end := info.DataOffset + info.CompressedLength
	if info.DataOffset < 0 || info.CompressedLength < 0 || end > len(snd) {
		return nil, fmt.Errorf("%w: want %d bytes of samples at %d, have %d", ErrFormat, info.CompressedLength, info.DataOffset, len(snd))
	}
	return snd[info.DataOffset:end], nil
}
