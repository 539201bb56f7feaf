// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package soundmgr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/elliotnunn/MacShim/internal/codec"
	"github.com/elliotnunn/MacShim/internal/decodecache"
	"github.com/elliotnunn/MacShim/internal/mixer"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/sndfmt"
)

const rate = 22050

func newManager(t *testing.T, cache *decodecache.Cache) *Manager {
	t.Helper()
	m := New(mixer.New(rate), cache)
	t.Cleanup(m.Shutdown)
	return m
}

func mustChannel(t *testing.T, m *Manager) ChannelID {
	t.Helper()
	id, err := m.NewChannel(sampledSynth, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// snd8 is a resource of n frames of unsigned 8-bit mono
func snd8(t *testing.T, n int, v byte) []byte {
	t.Helper()
	info := sndfmt.Info{Channels: 1, BitDepth: 8, SampleRate: rate, BaseNote: sndfmt.MiddleC}
	snd, err := sndfmt.Encode(info, bytes.Repeat([]byte{v}, n))
	if err != nil {
		t.Fatal(err)
	}
	return snd
}

func install(t *testing.T, m *Manager, id ChannelID, snd []byte) {
	t.Helper()
	off, err := sndfmt.GetSoundHeaderOffset(snd)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.InstallSound(id, snd, off); err != nil {
		t.Fatal(err)
	}
}

func TestInstallSound(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	install(t, m, id, snd8(t, 1000, 0xc0))

	if st, _ := m.Status(id); !st.Busy || st.Paused {
		t.Errorf("expected busy and not paused, got %+v", st)
	}
	out := make([]int16, 4)
	m.Mixer().Process(out)
	for i, s := range out {
		if s != 8192 { // +64 as 16 bits, halved by the master gain
			t.Errorf("sample %d: expected 8192, got %d", i, s)
		}
	}

	if err := m.DoImmediate(id, Command{Cmd: QuietCmd}); err != nil {
		t.Fatal(err)
	}
	if st, _ := m.Status(id); st.Busy {
		t.Error("expected quietCmd to stop the channel")
	}
}

func TestSoundCmd(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	snd := snd8(t, 100, 0x80)
	off, _ := sndfmt.GetSoundHeaderOffset(snd)
	if err := m.DoImmediate(id, Command{Cmd: BufferCmd | 0x8000, Ptr: snd[off:]}); err != nil {
		t.Fatal(err)
	}
	if st, _ := m.Status(id); !st.Busy {
		t.Error("expected bufferCmd to start the channel")
	}
	if err := m.DoImmediate(id, Command{Cmd: SoundCmd, Ptr: []byte{1, 2, 3}}); err == nil {
		t.Error("expected a truncated header to fail")
	}
}

func TestVolumeCmd(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	tests := []struct {
		l, r      uint16
		pan, gain float64
	}{
		{0, 0, 0, 0},
		{0x100, 0, -1, 1},
		{0x80, 0x80, 0, 0.5},
		{0, 0x300, 1, maxChannelGain},
	}
	for _, tt := range tests {
		param2 := int32(uint32(tt.r)<<16 | uint32(tt.l))
		if err := m.DoImmediate(id, Command{Cmd: VolumeCmd, Param2: param2}); err != nil {
			t.Fatal(err)
		}
		ch := m.chans[id-1]
		if ch.pan != tt.pan || ch.gain != tt.gain {
			t.Errorf("volume %#x/%#x: expected pan %v gain %v, got %v %v", tt.l, tt.r, tt.pan, tt.gain, ch.pan, ch.gain)
		}
	}

	m.DoImmediate(id, Command{Cmd: AmpCmd, Param1: 0x40})
	if g := m.chans[id-1].gain; g != 0.25 {
		t.Errorf("ampCmd: expected gain 0.25, got %v", g)
	}
}

func TestPitchCmds(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	m.DoImmediate(id, Command{Cmd: FreqCmd, Param2: 72})
	m.DoImmediate(id, Command{Cmd: RateMultiplierCmd, Param2: 0x18000})
	ch := m.chans[id-1]
	if ch.playbackNote != 72 || ch.pitchMult != 1.5 {
		t.Errorf("expected note 72 at 1.5x, got %d at %vx", ch.playbackNote, ch.pitchMult)
	}
	m.DoImmediate(id, Command{Cmd: ReInitCmd, Param2: initNoInterp})
	if ch.interpolate {
		t.Error("reInitCmd did not disable interpolation")
	}
	if err := m.DoImmediate(id, Command{Cmd: 999}); err != nil {
		t.Errorf("unknown commands should be ignored, got %v", err)
	}
}

func TestChannelErrors(t *testing.T) {
	m := newManager(t, nil)
	if _, err := m.NewChannel(1, 0, nil); !errors.Is(err, oserr.UnimpErr) {
		t.Errorf("expected unimpErr for a note synth, got %v", err)
	}
	if err := m.DisposeChannel(99, true); oserr.Code(err) != oserr.BadChannel {
		t.Errorf("expected badChannel, got %v", err)
	}
	if _, err := m.Status(0); oserr.Code(err) != oserr.BadChannel {
		t.Errorf("expected badChannel, got %v", err)
	}
}

func TestDispose(t *testing.T) {
	m := newManager(t, nil)
	a := mustChannel(t, m)
	b := mustChannel(t, m)
	if got := m.Channels(); len(got) != 2 || got[0] != b || got[1] != a {
		t.Errorf("expected newest first, got %v", got)
	}

	install(t, m, a, snd8(t, 1000, 0x90))
	if err := m.DisposeChannel(a, false); err != nil {
		t.Fatal(err)
	}
	if m.Mixer().Active() != 0 {
		t.Error("a disposed channel is still being mixed")
	}
	if got := m.Channels(); len(got) != 1 || got[0] != b {
		t.Errorf("expected only %d left, got %v", b, got)
	}
	if c := mustChannel(t, m); c != a {
		t.Errorf("expected the free slot %d to be reused, got %d", a, c)
	}

	m.Shutdown()
	if len(m.Channels()) != 0 {
		t.Error("Shutdown left channels open")
	}
}

func TestPauseAll(t *testing.T) {
	m := newManager(t, nil)
	a := mustChannel(t, m)
	b := mustChannel(t, m)
	c := mustChannel(t, m)
	for _, id := range []ChannelID{a, b, c} {
		install(t, m, id, snd8(t, 1000, 0x90))
	}
	m.DoImmediate(b, Command{Cmd: PommePausePlaybackCmd})
	m.DoImmediate(c, Command{Cmd: QuietCmd})

	m.PauseAllChannels(true)
	if st, _ := m.Status(a); !st.Paused {
		t.Error("expected a systemwide pause")
	}
	m.PauseAllChannels(false)
	if st, _ := m.Status(a); st.Paused || !st.Busy {
		t.Error("expected the systemwide pause to end")
	}
	if st, _ := m.Status(b); !st.Paused {
		t.Error("a channel paused by its owner must stay paused")
	}

	m.DoImmediate(b, Command{Cmd: PommeResumePlaybackCmd})
	m.DoImmediate(c, Command{Cmd: PommeResumePlaybackCmd})
	if st, _ := m.Status(b); st.Paused || !st.Busy {
		t.Error("expected the resume command to work")
	}
	if st, _ := m.Status(c); st.Busy {
		t.Error("the resume command must not revive a stopped channel")
	}
}

func TestCallBackCmd(t *testing.T) {
	m := newManager(t, nil)
	var got Command
	id, err := m.NewChannel(sampledSynth, 0, func(id ChannelID, cmd Command) {
		got = cmd
		m.Status(id) // must not deadlock
	})
	if err != nil {
		t.Fatal(err)
	}
	m.DoImmediate(id, Command{Cmd: CallBackCmd, Param1: 7, Param2: 8})
	if got.Param1 != 7 || got.Param2 != 8 {
		t.Errorf("callback got %+v", got)
	}
}

func TestDecodeCache(t *testing.T) {
	cache, err := decodecache.New(1<<20, "")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()
	m := newManager(t, cache)
	id := mustChannel(t, m)

	info := sndfmt.Info{Channels: 1, SampleRate: rate, Compressed: true, Compression: codec.TagULaw, BaseNote: sndfmt.MiddleC}
	snd, err := sndfmt.Encode(info, bytes.Repeat([]byte{0xff}, 10))
	if err != nil {
		t.Fatal(err)
	}
	install(t, m, id, snd)
	install(t, m, id, snd)
	if mem, _, miss := cache.Stats(); mem != 1 || miss != 1 {
		t.Errorf("expected one miss then one hit, got %d hits %d misses", mem, miss)
	}
}

func TestDefaultVolume(t *testing.T) {
	m := newManager(t, nil)
	if v := m.GetDefaultOutputVolume(); v != 0x00800080 {
		t.Errorf("expected 0x00800080, got %#x", v)
	}
	m.SetDefaultOutputVolume(0x01000100)
	if v := m.GetDefaultOutputVolume(); v != 0x01000100 {
		t.Errorf("expected 0x01000100, got %#x", v)
	}
	if v := m.Version(); v.MajorRev != 3 || v.MinorAndBugRev != 9 || v.Stage != 0x80 {
		t.Errorf("unexpected version %+v", v)
	}
}

func wavFile(pcm []byte) []byte {
	var b bytes.Buffer
	w := func(v any) { binary.Write(&b, binary.LittleEndian, v) }
	b.WriteString("RIFF")
	w(uint32(36 + len(pcm)))
	b.WriteString("WAVEfmt ")
	w(uint32(16))
	w(uint16(1))
	w(uint16(2))
	w(uint32(rate))
	w(uint32(rate * 4))
	w(uint16(4))
	w(uint16(16))
	b.WriteString("data")
	w(uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestFilePlayAsync(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	var done ChannelID
	r := bytes.NewReader(wavFile(make([]byte, 16)))
	if err := m.StartFilePlay(id, "Boing.wav", r, func(id ChannelID) { done = id }, true); err != nil {
		t.Fatal(err)
	}
	m.Mixer().Process(make([]int16, 64))
	if done != id {
		t.Errorf("expected completion for channel %d, got %d", id, done)
	}
}

func TestFilePlaySync(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	r := bytes.NewReader(wavFile(make([]byte, 400)))

	done := make(chan error)
	go func() { done <- m.StartFilePlay(id, "Boing.wav", r, nil, false) }()

	deadline := time.Now().Add(10 * time.Second)
	buf := make([]int16, 64)
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
			if st, _ := m.Status(id); st.Busy {
				t.Error("expected the channel to be recycled")
			}
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("synchronous play never returned")
		}
		m.Mixer().Process(buf)
		time.Sleep(time.Millisecond)
	}
}

func TestFilePlaySyncInterrupted(t *testing.T) {
	tests := []struct {
		name      string
		interrupt func(m *Manager, id ChannelID) error
	}{
		{"pause", func(m *Manager, id ChannelID) error { return m.PauseFilePlay(id) }},
		{"pauseAll", func(m *Manager, id ChannelID) error { m.PauseAllChannels(true); return nil }},
		{"dispose", func(m *Manager, id ChannelID) error { return m.DisposeChannel(id, true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, nil)
			id := mustChannel(t, m)
			r := bytes.NewReader(wavFile(make([]byte, 40000)))

			done := make(chan error)
			go func() { done <- m.StartFilePlay(id, "Boing.wav", r, nil, false) }()

			deadline := time.Now().Add(10 * time.Second)
			for {
				if st, _ := m.Status(id); st.Busy {
					break
				}
				if time.Now().After(deadline) {
					t.Fatal("playback never started")
				}
				time.Sleep(time.Millisecond)
			}
			if err := tt.interrupt(m, id); err != nil {
				t.Fatal(err)
			}

			select {
			case err := <-done:
				if err != nil {
					t.Fatal(err)
				}
			case <-time.After(10 * time.Second):
				t.Fatal("synchronous play never returned")
			}
		})
	}
}

func TestFilePlayErrors(t *testing.T) {
	m := newManager(t, nil)
	id := mustChannel(t, m)
	r := bytes.NewReader([]byte("not a sound"))
	tests := []struct {
		id    ChannelID
		name  string
		async bool
		want  oserr.OSErr
	}{
		{0, "a.aiff", true, oserr.BadChannel},
		{0, "a.aiff", false, oserr.UnimpErr},
		{id, "a.ogg", true, oserr.BadFileFormat},
		{id, "a.aiff", true, oserr.BadFileFormat},
	}
	for _, tt := range tests {
		err := m.StartFilePlay(tt.id, tt.name, r, nil, tt.async)
		if oserr.Code(err) != tt.want {
			t.Errorf("%s on channel %d: expected %v, got %v", tt.name, tt.id, tt.want, err)
		}
	}
}
