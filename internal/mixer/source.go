// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package mixer

import (
	"fmt"
)

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// stream supplies frames to the ring buffer of a Source
type stream interface {
	// fill writes len(dst)/2 stereo frames
	fill(dst []int16)
	rewindStream()
	clearStream()
}

// Source is one voice. All of its methods are safe to call while the mixer runs.
type Source struct {
	m      *Mixer
	stream stream

	pcmbuf [bufferSize]int16 // ring of stereo frames

	samplerate    int
	length        int // frames
	end           int
	state         State
	position      int64 // fixed point frames
	lgain, rgain  int
	rate          int
	nextfill      int
	loop          bool
	rewind        bool
	interpolate   bool
	active        bool
	sustainOffset int

	gain, pan  float64
	onComplete func()
}

func (s *Source) clearPrivate() {
	s.samplerate = 0
	s.length = 0
	s.end = 0
	s.state = Stopped
	s.position = 0
	s.lgain, s.rgain = 0, 0
	s.rate = 0
	s.nextfill = 0
	s.loop = false
	s.rewind = true
	s.interpolate = false
	s.gain, s.pan = 0, 0
	s.onComplete = nil
}

// init is called with the lock held
func (s *Source) init(samplerate, length int) {
	s.samplerate = samplerate
	s.length = length
	s.sustainOffset = 0
	s.setGain(1)
	s.setPan(0)
	s.setPitch(1)
	s.loop = false
	s.stop()
}

// Clear returns the source to its freshly created state
func (s *Source) Clear() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.clearPrivate()
	s.stream.clearStream()
}

// RemoveFromMixer unregisters the source so that it is safe to reuse its data
func (s *Source) RemoveFromMixer() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.active {
		s.m.remove(s)
		s.active = false
	}
}

// Destroy panics if the mixer might still be reading the source
func (s *Source) Destroy() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.active {
		panic(fmt.Sprintf("mixer: destroying a %v source that is still being mixed", s.state))
	}
	s.clearPrivate()
	s.stream.clearStream()
}

func (s *Source) doRewind() {
	s.stream.rewindStream()
	s.position = 0
	s.rewind = false
	s.end = s.length
	s.nextfill = 0
}

func (s *Source) fillBuffer(offset, n int) {
	s.stream.fill(s.pcmbuf[offset : offset+n])
}

// process adds up to len(dst)/2 frames into dst, with the lock held.
// It returns the completion callback if the source ran out.
func (s *Source) process(dst []int32) func() {
	if s.rewind {
		s.doRewind()
	}
	if s.state != Playing {
		return nil
	}

	d := 0
	left := len(dst)
	for left > 0 {
		frame := int(s.position >> fxBits)

		if frame+3 >= s.nextfill {
			s.fillBuffer((s.nextfill*2)&bufferMask, bufferSize/2)
			s.nextfill += bufferSize / 4
		}

		if frame >= s.end {
			// streams wrap around in the ring, so a further play-through is just more frames
			s.end = frame + s.length
			if !s.loop {
				s.state = Stopped
				return s.onComplete
			}
		}

		n := min(s.nextfill-2, s.end) - frame
		count := (n << fxBits) / s.rate
		count = max(count, 1)
		count = min(count, left/2)
		left -= count * 2

		switch {
		case s.rate == fxUnit:
			n = frame * 2
			for range count {
				dst[d] += int32((int(s.pcmbuf[n&bufferMask]) * s.lgain) >> fxBits)
				dst[d+1] += int32((int(s.pcmbuf[(n+1)&bufferMask]) * s.rgain) >> fxBits)
				n += 2
				d += 2
			}
			s.position += int64(count) * fxUnit
		case s.interpolate:
			for range count {
				n = int(s.position>>fxBits) * 2
				p := int(s.position & fxMask)
				a := int(s.pcmbuf[n&bufferMask])
				b := int(s.pcmbuf[(n+2)&bufferMask])
				dst[d] += int32((fxLerp(a, b, p) * s.lgain) >> fxBits)
				n++
				a = int(s.pcmbuf[n&bufferMask])
				b = int(s.pcmbuf[(n+2)&bufferMask])
				dst[d+1] += int32((fxLerp(a, b, p) * s.rgain) >> fxBits)
				s.position += int64(s.rate)
				d += 2
			}
		default:
			for range count {
				n = int(s.position>>fxBits) * 2
				dst[d] += int32((int(s.pcmbuf[n&bufferMask]) * s.lgain) >> fxBits)
				dst[d+1] += int32((int(s.pcmbuf[(n+1)&bufferMask]) * s.rgain) >> fxBits)
				s.position += int64(s.rate)
				d += 2
			}
		}
	}
	return nil
}

// Length is the duration of one play-through in seconds
func (s *Source) Length() float64 {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.samplerate == 0 {
		return 0
	}
	return float64(s.length) / float64(s.samplerate)
}

// Position is the playback position within the current play-through in seconds
func (s *Source) Position() float64 {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.samplerate == 0 || s.length == 0 {
		return 0
	}
	return float64(int(s.position>>fxBits)%s.length) / float64(s.samplerate)
}

// Frames is the length of one play-through
func (s *Source) Frames() int {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.length
}

func (s *Source) State() State {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.state
}

// IsActive reports whether the mixer holds the source
func (s *Source) IsActive() bool {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.active
}

func (s *Source) recalcGains() {
	l := s.gain
	if s.pan > 0 {
		l *= 1 - s.pan
	}
	r := s.gain
	if s.pan < 0 {
		r *= 1 + s.pan
	}
	s.lgain = fxFromFloat(l)
	s.rgain = fxFromFloat(r)
}

func (s *Source) setGain(g float64) {
	s.gain = g
	s.recalcGains()
}

func (s *Source) setPan(p float64) {
	s.pan = max(-1, min(1, p))
	s.recalcGains()
}

func (s *Source) setPitch(p float64) {
	rate := 0.001
	if p > 0 {
		rate = float64(s.samplerate) / float64(s.m.rate) * p
	}
	// a zero step would never advance
	s.rate = max(1, fxFromFloat(rate))
}

func (s *Source) SetGain(g float64) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.setGain(g)
}

// SetPan takes -1 for hard left to +1 for hard right
func (s *Source) SetPan(p float64) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.setPan(p)
}

// SetPitch multiplies the natural playback rate
func (s *Source) SetPitch(p float64) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.setPitch(p)
}

func (s *Source) SetLoop(loop bool) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.loop = loop
}

func (s *Source) SetInterpolation(interpolate bool) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.interpolate = interpolate
}

// SetSustainOffset sets the frame that a looping stream wraps back to.
// It must be less than the stream length.
func (s *Source) SetSustainOffset(frame int) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.sustainOffset = frame
}

// OnComplete registers fn to run after the source reaches its natural end.
// It is not called on Stop. The mixer lock is not held while fn runs.
func (s *Source) OnComplete(fn func()) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.onComplete = fn
}

// Play does nothing for an empty source, which would starve the ring buffer
func (s *Source) Play() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.play()
}

func (s *Source) play() {
	if s.length == 0 {
		return
	}
	s.state = Playing
	if !s.active {
		s.active = true
		s.m.sources = append(s.m.sources, s)
	}
}

func (s *Source) Pause() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.state = Paused
}

func (s *Source) TogglePause() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	switch s.state {
	case Paused:
		s.play()
	case Playing:
		s.state = Paused
	}
}

// Stop rewinds lazily, the next time the mixer looks at the source
func (s *Source) Stop() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.stop()
}

func (s *Source) stop() {
	s.state = Stopped
	s.rewind = true
}
