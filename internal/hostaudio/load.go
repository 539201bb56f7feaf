// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package hostaudio

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/elliotnunn/MacShim/internal/sndfmt"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

var ErrUnknownType = errors.New("not an MP3 or WAV file")

type decoded interface {
	io.Reader
	SampleRate() int
}

// LoadFile decodes an MP3 or WAV file, chosen by extension,
// to little-endian 16-bit stereo at the file's own sample rate
func LoadFile(name string, r io.Reader) (sndfmt.Info, []byte, error) {
	var (
		s   decoded
		err error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		s, err = mp3.DecodeWithoutResampling(r)
	case ".wav":
		s, err = wav.DecodeWithoutResampling(r)
	default:
		return sndfmt.Info{}, nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	if err != nil {
		return sndfmt.Info{}, nil, fmt.Errorf("%s: %w", name, err)
	}

	pcm, err := io.ReadAll(s)
	if err != nil {
		return sndfmt.Info{}, nil, fmt.Errorf("%s: %w", name, err)
	}
	pcm = pcm[:len(pcm)&^3]

	info := sndfmt.Info{
		Channels:           2,
		Packets:            len(pcm) / 4,
		BitDepth:           16,
		SampleRate:         float64(s.SampleRate()),
		Compression:        sndfmt.TagSowt,
		CompressedLength:   len(pcm),
		DecompressedLength: len(pcm),
		BaseNote:           sndfmt.MiddleC,
	}
	return info, pcm, nil
}
