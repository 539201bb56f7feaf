// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package sndfmt

import (
	"fmt"
	"io"

	"github.com/elliotnunn/MacShim/internal/beio"
	"github.com/elliotnunn/MacShim/internal/codec"
)

var compressionNames = map[uint32]string{
	codec.TagMACE3: "MACE 3-to-1",
	codec.TagIMA4:  "IMA 16 bit 4-to-1",
	TagNone:        "Signed PCM",
	TagTwos:        "Signed big-endian PCM",
	TagSowt:        "Signed little-endian PCM",
	TagRaw:         "Unsigned PCM",
	codec.TagULaw:  "mu-law",
	codec.TagALaw:  "A-law",
}

const (
	markerLoopBegin = 101
	markerLoopEnd   = 102
)

// DumpAIFF writes the samples of a 'snd ' resource into an AIFF-C file,
// byte for byte, whether or not they are compressed
func DumpAIFF(ws io.WriteSeeker, snd []byte, name string) error {
	info, err := GetSoundInfoFromSndResource(snd)
	if err != nil {
		return err
	}
	data, err := Payload(snd, info)
	if err != nil {
		return err
	}

	w := beio.NewWriter(ws)
	hasLoop := info.HasLoop()

	form := w.BeginChunk(ckFORM)
	w.U32(ckAIFC)

	c := w.BeginChunk(ckFVER)
	w.U32(aifcVersion1)
	c.End()

	c = w.BeginChunk(ckCOMM)
	w.I16(int16(info.Channels))
	w.U32(uint32(info.Packets))
	w.I16(int16(info.BitDepth))
	w.Write80BitFloat(info.SampleRate)
	w.U32(info.Compression)
	w.WritePascalString(compressionNames[info.Compression], 2)
	c.End()

	if hasLoop {
		c = w.BeginChunk(ckMARK)
		w.I16(2)
		w.I16(markerLoopBegin)
		w.U32(info.LoopStart)
		w.WritePascalString("beg loop", 2)
		w.I16(markerLoopEnd)
		w.U32(info.LoopEnd)
		w.WritePascalString("end loop", 2)
		c.End()
	}

	if info.BaseNote != MiddleC || hasLoop {
		var playMode, begin, end int16
		if hasLoop {
			playMode, begin, end = 1, markerLoopBegin, markerLoopEnd
		}
		c = w.BeginChunk(ckINST)
		w.I8(int8(info.BaseNote))
		w.WriteRaw([]byte{0, 0x00, 0x7f, 0x00, 0x7f}) // detune, note range, velocity range
		w.I16(0)                                      // gain
		w.I16(playMode)
		w.I16(begin)
		w.I16(end)
		w.WriteRaw(make([]byte, 6)) // release loop
		c.End()
	}

	if name != "" {
		c = w.BeginChunk(ckNAME)
		w.WriteRawString(name)
		c.End()
	}

	c = w.BeginChunk(ckANNO)
	w.WriteRawString(fmt.Sprintf("Verbatim copy of data stream from 'snd ' resource.\nMIDI base note: %d, sustain loop: %d-%d",
		info.BaseNote, info.LoopStart, info.LoopEnd))
	c.End()

	c = w.BeginChunk(ckSSND)
	w.U32(0) // offset
	w.U32(0) // block size
	w.WriteRaw(data)
	c.End()

	return form.End()
}
