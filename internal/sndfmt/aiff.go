// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package sndfmt

import (
	"fmt"
	"io"

	"github.com/elliotnunn/MacShim/internal/beio"
	"github.com/elliotnunn/MacShim/internal/codec"
)

const (
	ckFORM = 0x464f524d
	ckAIFF = 0x41494646
	ckAIFC = 0x41494643
	ckFVER = 0x46564552
	ckCOMM = 0x434f4d4d
	ckMARK = 0x4d41524b
	ckINST = 0x494e5354
	ckSSND = 0x53534e44
	ckNAME = 0x4e414d45
	ckANNO = 0x414e4e4f

	aifcVersion1 = 0xa2805140
	MiddleC      = 60
)

// ReadAIFF parses an AIFF or AIFF-C file and returns its samples.
// Info.DataOffset is 0, relative to the returned bytes.
// Signed 8-bit samples are converted to unsigned to match the standard 'snd ' header.
func ReadAIFF(rs io.ReadSeeker) (Info, []byte, error) {
	info, err := readAIFF(beio.NewReader(rs))
	if err != nil {
		return Info{}, nil, fmt.Errorf("AIFF: %w", err)
	}
	if _, err := rs.Seek(int64(info.DataOffset), io.SeekStart); err != nil {
		return Info{}, nil, err
	}
	data := make([]byte, info.CompressedLength)
	if _, err := io.ReadFull(rs, data); err != nil {
		return Info{}, nil, fmt.Errorf("AIFF: %w: %w", ErrFormat, err)
	}
	info.DataOffset = 0

	if !info.Compressed && info.BitDepth == 8 && info.Compression != TagRaw {
		for i := range data {
			data[i] ^= 0x80
		}
		info.Compression = TagRaw
	}
	return info, data, nil
}

func readAIFF(r *beio.Reader) (Info, error) {
	var form struct {
		ID   uint32
		Size uint32
		Type uint32
	}
	if err := r.ReadStruct(&form); err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if form.ID != ckFORM {
		return Info{}, fmt.Errorf("%w: invalid FORM", ErrFormat)
	}
	if form.Type != ckAIFF && form.Type != ckAIFC {
		return Info{}, fmt.Errorf("%w: not an AIFF or AIFC file", ErrFormat)
	}
	endOfForm := int64(8) + int64(form.Size)

	info := Info{Compression: TagNone, BaseNote: MiddleC, BigEndian: true}
	markers := make(map[uint16]uint32)
	gotCOMM, gotSSND := false, false

	for r.Tell() != endOfForm {
		ckID, err := r.U32()
		if err != nil {
			return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		ckSize, err := r.U32()
		if err != nil {
			return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		endOfChunk := r.Tell() + int64(ckSize)

		switch ckID {
		case ckFVER:
			ts, err := r.U32()
			if err != nil {
				return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
			}
			if ts != aifcVersion1 {
				return Info{}, fmt.Errorf("%w: unrecognized FVER %#x", ErrFormat, ts)
			}
		case ckCOMM:
			if err := readCOMM(r, &info, form.Type == ckAIFC); err != nil {
				return Info{}, err
			}
			gotCOMM = true
		case ckMARK:
			if err := readMARK(r, markers); err != nil {
				return Info{}, err
			}
		case ckINST:
			if err := readINST(r, &info, markers); err != nil {
				return Info{}, err
			}
		case ckSSND:
			if !gotCOMM {
				return Info{}, fmt.Errorf("%w: reached SSND before COMM", ErrFormat)
			}
			ob, err := r.U64()
			if err != nil {
				return Info{}, fmt.Errorf("%w: %w", ErrFormat, err)
			}
			if ob != 0 || ckSize < 8 {
				return Info{}, fmt.Errorf("%w: unexpected offset/blockSize in SSND", ErrFormat)
			}
			info.DataOffset = int(r.Tell())
			info.CompressedLength = int(ckSize) - 8
			info.DecompressedLength = info.CompressedLength
			if info.Compressed {
				c, err := codec.Get(info.Compression)
				if err != nil {
					return Info{}, err
				}
				info.DecompressedLength = codec.DecodedLength(c, info.Channels, info.Packets)
			}
			r.Skip(int64(info.CompressedLength))
			gotSSND = true
		default:
			r.Goto(endOfChunk)
		}

		if r.Tell() != endOfChunk {
			return Info{}, fmt.Errorf("%w: chunk %q ends at %d, expected %d", ErrFormat, fourCC(ckID), r.Tell(), endOfChunk)
		}
		if r.Tell()&1 == 1 { // pad byte
			r.Skip(1)
		}
	}
	if !gotSSND {
		return Info{}, fmt.Errorf("%w: no SSND chunk", ErrFormat)
	}
	return info, nil
}

var aifcEndianness = map[uint32]struct{ bigEndian, compressed bool }{
	TagNone:        {true, false},
	TagTwos:        {true, false},
	TagSowt:        {false, false},
	TagRaw:         {true, false},
	codec.TagMACE3: {true, true},
	codec.TagIMA4:  {true, true},
	codec.TagULaw:  {true, true},
	codec.TagALaw:  {true, true},
}

func readCOMM(r *beio.Reader, info *Info, isAIFC bool) error {
	var comm struct {
		Channels uint16
		Packets  uint32
		BitDepth uint16
	}
	if err := r.ReadStruct(&comm); err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	rate, err := r.Read80BitFloat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	info.Channels = int(comm.Channels)
	info.Packets = int(comm.Packets)
	info.BitDepth = int(comm.BitDepth)
	info.SampleRate = rate
	info.Compression = TagNone
	if isAIFC {
		if info.Compression, err = r.U32(); err != nil {
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
		if _, err := r.ReadPascalString(2); err != nil { // human-readable name
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
	}
	e, ok := aifcEndianness[info.Compression]
	if !ok {
		return fmt.Errorf("%w: unknown AIFF-C compression type %q", ErrUnsupported, fourCC(info.Compression))
	}
	info.BigEndian, info.Compressed = e.bigEndian, e.compressed
	if info.Channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrFormat, info.Channels)
	}
	return nil
}

func readMARK(r *beio.Reader, markers map[uint16]uint32) error {
	n, err := r.I16()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	for range max(0, int(n)) {
		var m struct {
			ID       uint16
			Position uint32
		}
		if err := r.ReadStruct(&m); err != nil {
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
		if _, err := r.ReadPascalString(2); err != nil {
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
		markers[m.ID] = m.Position
	}
	return nil
}

func readINST(r *beio.Reader, info *Info, markers map[uint16]uint32) error {
	var inst struct {
		BaseNote     int8
		Detune       int8
		LowNote      int8
		HighNote     int8
		LowVelocity  int8
		HighVelocity int8
		Gain         int16
		PlayMode     uint16
		BeginLoop    uint16
		EndLoop      uint16
		Release      [6]byte
	}
	if err := r.ReadStruct(&inst); err != nil {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	info.BaseNote = int(inst.BaseNote)
	switch inst.PlayMode {
	case 0:
	case 1:
		begin, ok1 := markers[inst.BeginLoop]
		end, ok2 := markers[inst.EndLoop]
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: INST refers to a missing marker", ErrFormat)
		}
		info.LoopStart, info.LoopEnd = begin, end
	default:
		return fmt.Errorf("%w: INST play mode %d", ErrUnsupported, inst.PlayMode)
	}
	return nil
}

func fourCC(tag uint32) string {
	return string([]byte{byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag)})
}
