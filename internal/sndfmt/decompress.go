// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package sndfmt

import (
	"fmt"

	"github.com/elliotnunn/MacShim/internal/codec"
)

// Decompress turns a compressed resource into one with native 16-bit PCM.
// An uncompressed resource is returned unchanged, with false.
func Decompress(snd []byte) ([]byte, bool, error) {
	info, err := GetSoundInfoFromSndResource(snd)
	if err != nil {
		return nil, false, err
	}
	if !info.Compressed {
		return snd, false, nil
	}
	pcm, err := DecodePayload(snd, info)
	if err != nil {
		return nil, false, err
	}
	if info.Channels > 2 {
		return nil, false, fmt.Errorf("%w: %d channels", ErrUnsupported, info.Channels)
	}

	out := info
	out.Compressed = false
	out.Compression = TagSowt
	out.BitDepth = 16
	out.BigEndian = false
	ret, err := Encode(out, pcm)
	if err != nil {
		return nil, false, err
	}

	if off, err := GetSoundHeaderOffset(ret); err != nil || off != len(commandList) {
		return nil, false, fmt.Errorf("decompressed sound header at wrong offset %d: %v", off, err)
	}
	return ret, true, nil
}

// DecodePayload expands the samples of a compressed sound to little-endian 16-bit PCM
func DecodePayload(snd []byte, info Info) ([]byte, error) {
	in, err := Payload(snd, info)
	if err != nil {
		return nil, err
	}
	c, err := codec.Get(info.Compression)
	if err != nil {
		return nil, err
	}
	pcm := make([]byte, info.DecompressedLength)
	if err := c.Decode(info.Channels, in, pcm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return pcm, nil
}
