// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package soundmgr implements Sound Manager channels on top of the mixer
package soundmgr

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/elliotnunn/MacShim/internal/decodecache"
	"github.com/elliotnunn/MacShim/internal/mixer"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/sndfmt"
)

const (
	sampledSynth = 5
	initNoInterp = 0x0004

	maxChannelGain = 2.5
)

// ChannelID is stable for the life of the channel. The zero ChannelID is never valid.
type ChannelID int

// NumVersion is the Toolbox version record
type NumVersion struct {
	MajorRev       uint8
	MinorAndBugRev uint8
	Stage          uint8
	NonRelRev      uint8
}

type channel struct {
	source *mixer.WavStream

	pan, gain      float64
	baseNote       int
	playbackNote   int
	pitchMult      float64
	loop           bool
	interpolate    bool
	temporaryPause bool // paused by PauseAllChannels rather than by the caller

	callback func(ChannelID, Command)
}

// Manager is one audio engine. It is safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	mixer *mixer.Mixer
	chans []*channel  // ChannelID-1 indexes this, nil when free
	live  []ChannelID // most recently created first

	cache *decodecache.Cache
	salt  []byte
}

// New makes a Manager that plays into m.
// The cache may be nil.
func New(m *mixer.Mixer, cache *decodecache.Cache) *Manager {
	return &Manager{mixer: m, cache: cache}
}

func (m *Manager) Mixer() *mixer.Mixer {
	return m.mixer
}

// SetCacheSalt scopes subsequent decode cache entries, normally to the file being played
func (m *Manager) SetCacheSalt(salt []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.salt = slices.Clone(salt)
}

func (m *Manager) get(id ChannelID) (*channel, error) {
	if id <= 0 || int(id) > len(m.chans) || m.chans[id-1] == nil {
		return nil, fmt.Errorf("channel %d: %w", id, oserr.BadChannel)
	}
	return m.chans[id-1], nil
}

// NewChannel only supports the sampled synthesizer
func (m *Manager) NewChannel(synth int, init uint32, callback func(ChannelID, Command)) (ChannelID, error) {
	if synth != sampledSynth {
		slog.Warn("unimplementedSynth", "synth", synth)
		return 0, oserr.UnimpErr
	}

	ch := &channel{
		source:       mixer.NewWavStream(m.mixer),
		gain:         1,
		baseNote:     sndfmt.MiddleC,
		playbackNote: sndfmt.MiddleC,
		pitchMult:    1,
		callback:     callback,
	}
	ch.setInitParams(init)

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.chans, nil)
	if i < 0 {
		i = len(m.chans)
		m.chans = append(m.chans, nil)
	}
	m.chans[i] = ch
	id := ChannelID(i + 1)
	m.live = slices.Insert(m.live, 0, id)

	slog.Debug("newChannel", "id", id, "init", fmt.Sprintf("%#x", init), "managedChannels", len(m.live))
	return id, nil
}

// DisposeChannel always stops the sound immediately
func (m *Manager) DisposeChannel(id ChannelID, quietNow bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return err
	}
	if !quietNow {
		slog.Debug("disposeChannelNotQuiet", "id", id)
	}

	// the mixer must let go before the samples can be released
	ch.source.RemoveFromMixer()
	ch.source.Destroy()

	m.chans[id-1] = nil
	m.live = slices.DeleteFunc(m.live, func(l ChannelID) bool { return l == id })
	return nil
}

// Channels lists the open channels, most recently created first
func (m *Manager) Channels() []ChannelID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.live)
}

type Status struct {
	Paused bool
	Busy   bool
}

func (m *Manager) Status(id ChannelID) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return Status{}, err
	}
	st := ch.source.State()
	return Status{Paused: st == mixer.Paused, Busy: st != mixer.Stopped}, nil
}

// PauseAllChannels pauses every playing channel, then later resumes only those it paused
func (m *Manager) PauseAllChannels(pause bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.live {
		ch := m.chans[id-1]
		st := ch.source.State()
		switch {
		case pause && st == mixer.Playing && !ch.temporaryPause:
			ch.source.Pause()
			ch.temporaryPause = true
		case !pause && st == mixer.Paused && ch.temporaryPause:
			ch.source.Play()
			ch.temporaryPause = false
		}
	}
}

// GetDefaultOutputVolume packs the master gain for both sides, 0x0100 being unity
func (m *Manager) GetDefaultOutputVolume() uint32 {
	g := uint16(m.mixer.MasterGain() * 256)
	return uint32(g)<<16 | uint32(g)
}

// SetDefaultOutputVolume uses the left level for both sides
func (m *Manager) SetDefaultOutputVolume(level uint32) {
	left := uint16(level)
	right := uint16(level >> 16)
	if left != right {
		slog.Debug("stereoOutputVolumeUnsupported", "left", left, "right", right)
	}
	m.mixer.SetMasterGain(float64(left) / 256)
}

func (m *Manager) Version() NumVersion {
	return NumVersion{MajorRev: 3, MinorAndBugRev: 9, Stage: 0x80}
}

// Shutdown disposes of every channel
func (m *Manager) Shutdown() {
	for _, id := range m.Channels() {
		m.DisposeChannel(id, true)
	}
}

func (ch *channel) setInitParams(init uint32) {
	ch.interpolate = init&initNoInterp == 0
	ch.source.SetInterpolation(ch.interpolate)
}

const (
	applyPanAndGain = 1 << iota
	applyPitch
	applyLoop
	applyInterpolation

	applyAll = applyPanAndGain | applyPitch | applyLoop | applyInterpolation
)

func (ch *channel) apply(mask int) {
	if mask&applyPitch != 0 {
		base := sndfmt.NoteFrequency(ch.baseNote)
		playback := sndfmt.NoteFrequency(ch.playbackNote)
		ch.source.SetPitch(ch.pitchMult * playback / base)
	}
	if mask&applyPanAndGain != 0 {
		if ch.gain > maxChannelGain {
			slog.Debug("channelGainCapped", "gain", ch.gain)
			ch.gain = maxChannelGain
		}
		ch.source.SetPan(ch.pan)
		ch.source.SetGain(ch.gain)
	}
	if mask&applyInterpolation != 0 {
		ch.source.SetInterpolation(ch.interpolate)
	}
	if mask&applyLoop != 0 {
		ch.source.SetLoop(ch.loop)
	}
}
