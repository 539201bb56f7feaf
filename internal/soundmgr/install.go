// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package soundmgr

import (
	"fmt"
	"log/slog"

	"github.com/elliotnunn/MacShim/internal/decodecache"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/sndfmt"
)

// InstallSound starts the sampled sound whose header is at hdrOffset within snd.
// Use sndfmt.GetSoundHeaderOffset to find it in a resource.
func (m *Manager) InstallSound(id ChannelID, snd []byte, hdrOffset int) error {
	if hdrOffset < 0 || hdrOffset > len(snd) {
		return fmt.Errorf("header offset %d: %w", hdrOffset, oserr.BadFormat)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return err
	}
	if err := m.installHeader(ch, snd[hdrOffset:]); err != nil {
		return err
	}
	ch.source.Play()
	return nil
}

// InstallInfo starts samples that did not come from a sound header, such as an AIFF file.
// Info.DataOffset is relative to data.
func (m *Manager) InstallInfo(id ChannelID, info sndfmt.Info, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return err
	}
	payload, err := sndfmt.Payload(data, info)
	if err != nil {
		return err
	}
	info.DataOffset = 0
	if err := m.installInfo(ch, info, payload); err != nil {
		return err
	}
	ch.source.Play()
	return nil
}

func (m *Manager) installHeader(ch *channel, hdr []byte) error {
	info, err := sndfmt.GetSoundInfo(hdr)
	if err != nil {
		return err
	}
	payload, err := sndfmt.Payload(hdr, info)
	if err != nil {
		return err
	}
	info.DataOffset = 0
	return m.installInfo(ch, info, payload)
}

// installInfo leaves the channel ready to Play, with the channel's own
// parameters applied except for looping, which comes from the sound
func (m *Manager) installInfo(ch *channel, info sndfmt.Info, payload []byte) error {
	ch.source.Clear()

	pcm, bits, bigEndian := payload, info.BitDepth, info.BigEndian
	if info.Compressed {
		var err error
		pcm, err = m.decode(info, payload)
		if err != nil {
			return err
		}
		bits, bigEndian = 16, false
	}
	if err := ch.source.Init(int(info.SampleRate), bits, info.Channels, bigEndian, pcm); err != nil {
		return fmt.Errorf("%w: %w", oserr.BadFormat, err)
	}

	ch.baseNote = info.BaseNote

	if info.HasLoop() {
		ch.source.SetLoop(true)
		frames := ch.source.Frames()
		if int64(info.LoopStart) >= int64(frames) {
			slog.Warn("soundLoopStartIllegal", "loopStart", info.LoopStart, "length", frames)
		} else {
			ch.source.SetSustainOffset(int(info.LoopStart))
		}
		if int64(info.LoopEnd) != int64(frames) {
			slog.Debug("soundLoopEndUnsupported", "loopEnd", info.LoopEnd, "length", frames)
		}
	}

	ch.apply(applyAll &^ applyLoop)
	ch.temporaryPause = false // overrides a systemwide pause
	return nil
}

func (m *Manager) decode(info sndfmt.Info, payload []byte) ([]byte, error) {
	if m.cache == nil {
		return sndfmt.DecodePayload(payload, info)
	}
	k := decodecache.MakeKey(info.Compression, info.Channels, payload)
	if m.salt != nil {
		k = k.Salted(m.salt)
	}
	if pcm, ok := m.cache.Get(k); ok && len(pcm) == info.DecompressedLength {
		return pcm, nil
	}
	pcm, err := sndfmt.DecodePayload(payload, info)
	if err != nil {
		return nil, err
	}
	m.cache.Put(k, pcm)
	return pcm, nil
}
