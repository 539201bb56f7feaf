// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package soundmgr

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/elliotnunn/MacShim/internal/hostaudio"
	"github.com/elliotnunn/MacShim/internal/mixer"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/sndfmt"
)

const filePlayPoll = 100 * time.Millisecond

// LoadFile reads an AIFF, AIFF-C, MP3 or WAV file, chosen by extension
func LoadFile(name string, r io.ReadSeeker) (sndfmt.Info, []byte, error) {
	// the file might have been played to the end already
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return sndfmt.Info{}, nil, err
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".aif", ".aiff", ".aifc":
		return sndfmt.ReadAIFF(r)
	case ".mp3", ".wav":
		return hostaudio.LoadFile(name, r)
	default:
		return sndfmt.Info{}, nil, fmt.Errorf("%s: %w", name, oserr.BadFileFormat)
	}
}

// StartFilePlay plays a sound file on a channel.
// If async is false then it returns once the sound stops or is paused,
// or once the channel is disposed.
// The completion function, which may be nil, runs when the sound reaches its end.
func (m *Manager) StartFilePlay(id ChannelID, name string, r io.ReadSeeker, completion func(ChannelID), async bool) error {
	if id == 0 {
		if async {
			return oserr.BadChannel
		}
		slog.Warn("syncFilePlayWithoutChannel", "name", name)
		return oserr.UnimpErr
	}

	info, data, err := LoadFile(name, r)
	if err != nil {
		if oserr.Code(err) == oserr.ParamErr {
			err = fmt.Errorf("%w: %w", oserr.BadFileFormat, err)
		}
		return err
	}

	ch, err := m.startFile(id, info, data, completion)
	if err != nil {
		return err
	}
	if async {
		return nil
	}

	for {
		switch m.filePlayState(id, ch) {
		case filePlayDisposed:
			return nil
		case filePlayPaused:
			slog.Debug("syncFilePlayPaused", "id", id)
			return nil
		case filePlayStopped:
			return nil
		}
		time.Sleep(filePlayPoll)
	}
}

const (
	filePlayRunning = iota
	filePlayPaused
	filePlayStopped
	filePlayDisposed
)

// filePlayState recycles the source once it has stopped
func (m *Manager) filePlayState(id ChannelID, ch *channel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, err := m.get(id); err != nil || cur != ch {
		return filePlayDisposed
	}
	switch ch.source.State() {
	case mixer.Paused:
		return filePlayPaused
	case mixer.Stopped:
		ch.source.Clear()
		return filePlayStopped
	}
	return filePlayRunning
}

func (m *Manager) startFile(id ChannelID, info sndfmt.Info, data []byte, completion func(ChannelID)) (*channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if err := m.installInfo(ch, info, data); err != nil {
		return nil, err
	}
	if completion != nil {
		ch.source.OnComplete(func() { completion(id) })
	}
	ch.source.Play()
	return ch, nil
}

// PauseFilePlay toggles between paused and playing
func (m *Manager) PauseFilePlay(id ChannelID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return err
	}
	ch.source.TogglePause()
	return nil
}

// StopFilePlay always stops immediately
func (m *Manager) StopFilePlay(id ChannelID, quietNow bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, err := m.get(id)
	if err != nil {
		return err
	}
	if !quietNow {
		slog.Debug("stopFilePlayNotQuiet", "id", id)
	}
	ch.source.Stop()
	return nil
}
