// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package soundmgr

import (
	"log/slog"

	"github.com/elliotnunn/MacShim/internal/mixer"
	"github.com/elliotnunn/MacShim/internal/sndfmt"
)

// Sound command numbers
const (
	NullCmd           = 0
	QuietCmd          = 3
	FlushCmd          = 4
	ReInitCmd         = 5
	CallBackCmd       = 13
	FreqCmd           = 42
	AmpCmd            = 43
	VolumeCmd         = 46
	SoundCmd          = 80
	BufferCmd         = 81
	RateCmd           = 82
	RateMultiplierCmd = 86

	// extensions
	PommeSetLoopCmd        = 0x7001
	PommePausePlaybackCmd  = 0x7002
	PommeResumePlaybackCmd = 0x7003

	dataOffsetFlag = 0x8000 // param2 is an offset to associated sound data
)

// Command is a SndCommand. For SoundCmd and BufferCmd,
// Ptr holds a sampled sound header and the samples that follow it.
type Command struct {
	Cmd    uint16
	Param1 int16
	Param2 int32
	Ptr    []byte
}

// DoImmediate runs a command now. Unknown commands are logged and ignored.
func (m *Manager) DoImmediate(id ChannelID, cmd Command) error {
	after, err := m.doImmediate(id, cmd)
	if after != nil {
		after()
	}
	return err
}

// doImmediate returns work to do after the lock is dropped
func (m *Manager) doImmediate(id ChannelID, cmd Command) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return nil, err
	}

	switch cmd.Cmd &^ dataOffsetFlag {
	case NullCmd:
	case FlushCmd:
		// nothing is ever queued
	case QuietCmd:
		ch.source.Stop()
	case BufferCmd, SoundCmd:
		if err := m.installHeader(ch, cmd.Ptr); err != nil {
			return nil, err
		}
		ch.source.Play()
	case AmpCmd:
		ch.gain = float64(cmd.Param1) / 256
		ch.apply(applyPanAndGain)
	case VolumeCmd:
		l := uint16(cmd.Param2)
		r := uint16(uint32(cmd.Param2) >> 16)
		ch.pan = 0
		if sum := float64(l) + float64(r); sum != 0 {
			ch.pan = 2*float64(r)/sum - 1
		}
		ch.gain = float64(max(l, r)) / 256
		ch.apply(applyPanAndGain)
	case FreqCmd:
		note := int(uint8(cmd.Param2))
		slog.Debug("freqCmd", "note", note, "name", sndfmt.NoteName(note), "hz", sndfmt.NoteFrequency(note))
		ch.playbackNote = note
		ch.apply(applyPitch)
	case RateCmd:
		// the Toolbox calls this a multiple of 22 kHz, but games pass 1.0 at any rate
		ch.pitchMult = float64(cmd.Param2) / 65536
		ch.apply(applyPitch)
	case RateMultiplierCmd:
		ch.pitchMult = float64(cmd.Param2) / 65536
		ch.apply(applyPitch)
	case ReInitCmd:
		ch.setInitParams(uint32(cmd.Param2))
	case CallBackCmd:
		if fn := ch.callback; fn != nil {
			return func() { fn(id, cmd) }, nil
		}
	case PommeSetLoopCmd:
		ch.loop = cmd.Param1 != 0
		ch.apply(applyLoop)
	case PommePausePlaybackCmd:
		if ch.source.State() == mixer.Playing {
			ch.source.Pause()
		}
	case PommeResumePlaybackCmd:
		// a stopped channel stays stopped
		if ch.source.State() == mixer.Paused {
			ch.source.Play()
		}
	default:
		slog.Debug("soundCmdUnimplemented", "cmd", cmd.Cmd, "param1", cmd.Param1, "param2", cmd.Param2)
	}
	return nil, nil
}

// DoCommand would queue a command, but only DoImmediate is implemented
func (m *Manager) DoCommand(id ChannelID, cmd Command, noWait bool) error {
	slog.Debug("doCommandUnimplemented", "id", id, "cmd", cmd.Cmd, "noWait", noWait)
	return nil
}

