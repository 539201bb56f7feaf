// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package mixer is a fixed-point software mixer producing interleaved 16-bit stereo
package mixer

import (
	"errors"
	"math"
	"slices"
	"sync"
)

var ErrUnsupported = errors.New("unsupported PCM layout")

const (
	fxBits = 12
	fxUnit = 1 << fxBits
	fxMask = fxUnit - 1

	bufferSize = 512 // samples, so 256 stereo frames
	bufferMask = bufferSize - 1
)

func fxFromFloat(f float64) int {
	return int(f * fxUnit)
}

func fxLerp(a, b, p int) int {
	return a + (((b - a) * p) >> fxBits)
}

// Mixer sums every playing Source into one output stream.
// The zero value is not usable, call New.
type Mixer struct {
	mu      sync.Mutex
	sources []*Source
	mixbuf  [bufferSize]int32
	gain    int
	rate    int
}

func New(sampleRate int) *Mixer {
	m := &Mixer{rate: sampleRate, gain: fxUnit}
	m.SetMasterGain(0.5)
	return m
}

func (m *Mixer) SampleRate() int {
	return m.rate
}

// Lock excludes Process, for callers updating several sources at once
func (m *Mixer) Lock() {
	m.mu.Lock()
}

func (m *Mixer) Unlock() {
	m.mu.Unlock()
}

func (m *Mixer) SetMasterGain(g float64) {
	if g < 0 {
		g = 0
	}
	m.mu.Lock()
	m.gain = fxFromFloat(g)
	m.mu.Unlock()
}

func (m *Mixer) MasterGain() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.gain) / fxUnit
}

// Active reports how many sources are registered for mixing
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Process fills out with interleaved stereo samples.
// A trailing odd sample is left silent.
func (m *Mixer) Process(out []int16) {
	if len(out)%2 != 0 {
		out[len(out)-1] = 0
		out = out[:len(out)-1]
	}
	for len(out) > 0 {
		n := min(len(out), bufferSize)
		m.process(out[:n])
		out = out[n:]
	}
}

func (m *Mixer) process(out []int16) {
	mix := m.mixbuf[:len(out)]
	clear(mix)

	var done []func()
	m.mu.Lock()
	kept := m.sources[:0]
	for _, s := range m.sources {
		if fn := s.process(mix); fn != nil {
			done = append(done, fn)
		}
		if s.state != Playing {
			s.active = false
		} else {
			kept = append(kept, s)
		}
	}
	clear(m.sources[len(kept):])
	m.sources = kept

	for i, x := range mix {
		v := (int(x) * m.gain) >> fxBits
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, v)))
	}
	m.mu.Unlock()

	// completion callbacks may call back into the mixer
	for _, fn := range done {
		fn()
	}
}

func (m *Mixer) remove(s *Source) {
	m.sources = slices.DeleteFunc(m.sources, func(t *Source) bool { return t == s })
}
