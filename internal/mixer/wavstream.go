// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package mixer

import (
	"encoding/binary"
	"fmt"
)

// WavStream plays 8-bit unsigned or 16-bit signed PCM from memory
type WavStream struct {
	Source

	bitDepth  int
	channels  int
	bigEndian bool
	idx       int // next frame to fill
	data      []byte
}

func NewWavStream(m *Mixer) *WavStream {
	w := &WavStream{}
	w.m = m
	w.stream = w
	w.clearPrivate()
	return w
}

// Init replaces the stream contents, leaving it stopped at full gain, centred, unity pitch.
// The source keeps a reference to data.
func (w *WavStream) Init(samplerate, bitDepth, channels int, bigEndian bool, data []byte) error {
	if (bitDepth != 8 && bitDepth != 16) || (channels != 1 && channels != 2) {
		return fmt.Errorf("%w: %d-bit %d-channel", ErrUnsupported, bitDepth, channels)
	}
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	w.clearPrivate()
	w.clearStream()
	w.init(samplerate, len(data)/(bitDepth/8)/channels)
	w.bitDepth = bitDepth
	w.channels = channels
	w.bigEndian = bigEndian
	w.data = data
	return nil
}

// Data is the PCM most recently passed to Init
func (w *WavStream) Data() []byte {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	return w.data
}

func (w *WavStream) clearStream() {
	w.bitDepth = 0
	w.channels = 0
	w.bigEndian = false
	w.idx = 0
	w.data = nil
}

func (w *WavStream) rewindStream() {
	w.idx = 0
}

func (w *WavStream) fill(dst []int16) {
	wrap := w.sustainOffset
	if wrap >= w.length {
		wrap = 0
	}

	frames := len(dst) / 2
	for frames > 0 {
		n := min(frames, w.length-w.idx)
		frames -= n
		for range n {
			dst[0], dst[1] = w.frame(w.idx)
			dst = dst[2:]
			w.idx++
		}
		if frames > 0 {
			w.idx = wrap
		}
	}
}

func (w *WavStream) frame(i int) (l, r int16) {
	if w.bitDepth == 8 {
		off := i * w.channels
		l = int16((int(w.data[off]) - 128) << 8)
		r = l
		if w.channels == 2 {
			r = int16((int(w.data[off+1]) - 128) << 8)
		}
		return l, r
	}

	var order binary.ByteOrder = binary.LittleEndian
	if w.bigEndian {
		order = binary.BigEndian
	}
	off := i * w.channels * 2
	l = int16(order.Uint16(w.data[off:]))
	r = l
	if w.channels == 2 {
		r = int16(order.Uint16(w.data[off+2:]))
	}
	return l, r
}
