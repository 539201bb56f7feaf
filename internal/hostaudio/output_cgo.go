// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build cgo

package hostaudio

import (
	"fmt"
	"time"

	"github.com/elliotnunn/MacShim/internal/mixer"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Output pulls PCM from a mixer for as long as it is open
type Output struct {
	player *audio.Player
}

// Open starts playback at the mixer's sample rate.
// Every Output in a process must share one rate.
func Open(m *mixer.Mixer) (*Output, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(m.SampleRate())
	} else if ctx.SampleRate() != m.SampleRate() {
		return nil, fmt.Errorf("%w: have %d, want %d", errRate, ctx.SampleRate(), m.SampleRate())
	}

	p, err := ctx.NewPlayer(mixer.Reader(m))
	if err != nil {
		return nil, err
	}
	p.SetBufferSize(50 * time.Millisecond)
	p.Play()
	return &Output{player: p}, nil
}

func (o *Output) Close() error {
	if o == nil || o.player == nil {
		return nil
	}
	p := o.player
	o.player = nil
	return p.Close()
}
