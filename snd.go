// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/MacShim/internal/blockstore"
	"github.com/elliotnunn/MacShim/internal/decodecache"
	"github.com/elliotnunn/MacShim/internal/hostaudio"
	"github.com/elliotnunn/MacShim/internal/mixer"
	"github.com/elliotnunn/MacShim/internal/resmgr"
	"github.com/elliotnunn/MacShim/internal/resourcefork"
	"github.com/elliotnunn/MacShim/internal/sndfmt"
	"github.com/elliotnunn/MacShim/internal/soundmgr"
	"github.com/spf13/cobra"
)

var sndType = resourcefork.MustType("snd ")

var sndOutput string

var sndCmd = &cobra.Command{
	Use:   "snd",
	Short: "Decode and play 'snd ' resources",
}

var sndInfoCmd = &cobra.Command{
	Use:   "info FILE [ID-PATTERN]",
	Short: "Describe each sound resource",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "*"
		if len(args) == 2 {
			pattern = args[1]
		}
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("bad pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}

		mgr := resmgr.New(nil)
		ref, err := openResFile(mgr, args[0])
		if err != nil {
			return err
		}
		defer mgr.CloseResFile(ref)

		out := cmd.OutOrStdout()
		for i := range mgr.Count1Resources(sndType) {
			h, err := mgr.Get1IndResource(sndType, i+1)
			if err != nil {
				return err
			}
			id, _, name, err := mgr.GetResInfo(h)
			if err != nil {
				return err
			}
			if ok, _ := doublestar.Match(pattern, strconv.Itoa(int(id))); !ok {
				mgr.ReleaseResource(h)
				continue
			}
			data, err := mgr.Store().Bytes(h)
			if err != nil {
				return err
			}
			info, err := sndfmt.GetSoundInfoFromSndResource(data)
			mgr.ReleaseResource(h)
			if err != nil {
				fmt.Fprintf(out, "%d\t%q\t%v\n", id, name, err)
				continue
			}
			fmt.Fprintf(out, "%d\t%q\t%s\n", id, name, describe(info))
		}
		return nil
	},
}

func describe(info sndfmt.Info) string {
	s := fmt.Sprintf("%q %dch %d-bit %.0fHz %d packets base=%s",
		resourcefork.Type(info.Compression).String(), info.Channels, info.BitDepth,
		info.SampleRate, info.Packets, sndfmt.NoteName(info.BaseNote))
	if info.HasLoop() {
		s += fmt.Sprintf(" loop=%d-%d", info.LoopStart, info.LoopEnd)
	}
	return s
}

var sndAIFFCmd = &cobra.Command{
	Use:   "aiff FILE ID",
	Short: "Save a sound resource as AIFF-C without decoding it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snd, name, err := loadSnd(args[0], args[1])
		if err != nil {
			return err
		}
		f, err := os.Create(outputName(args[1] + ".aiff"))
		if err != nil {
			return err
		}
		if err := sndfmt.DumpAIFF(f, snd, name); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

var sndDecompressCmd = &cobra.Command{
	Use:   "decompress FILE ID",
	Short: "Save a sound resource decoded to 16-bit PCM",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snd, _, err := loadSnd(args[0], args[1])
		if err != nil {
			return err
		}
		pcm, changed, err := sndfmt.Decompress(snd)
		if err != nil {
			return err
		}
		if !changed {
			slog.Info("soundNotCompressed", "id", args[1])
		}
		return os.WriteFile(outputName(args[1]+".snd"), pcm, 0o644)
	},
}

var sndPlayCmd = &cobra.Command{
	Use:   "play FILE [ID]",
	Short: "Play a sound resource, or an AIFF, MP3 or WAV file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := startEngine(args[0])
		if err != nil {
			return err
		}
		defer e.close()

		ch, err := e.snd.NewChannel(5, 0, nil)
		if err != nil {
			return err
		}

		var snd []byte
		if len(args) == 2 {
			snd, _, err = loadSnd(args[0], args[1])
		} else {
			snd, err = firstSnd(args[0])
		}
		switch {
		case err == nil:
			off, err := sndfmt.GetSoundHeaderOffset(snd)
			if err != nil {
				return err
			}
			if err := e.snd.InstallSound(ch, snd, off); err != nil {
				return err
			}
		case len(args) == 1 && errors.Is(err, resourcefork.ErrFormat):
			in, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			if err := e.snd.StartFilePlay(ch, in.name, in, nil, true); err != nil {
				return err
			}
		default:
			return err
		}
		return e.wait(cmd.Context(), ch)
	},
}

func outputName(fallback string) string {
	if sndOutput != "" {
		return sndOutput
	}
	return fallback
}

// loadSnd fetches one resource by ID through the resource manager
func loadSnd(path, idArg string) (snd []byte, name string, err error) {
	id, err := parseID(idArg)
	if err != nil {
		return nil, "", err
	}
	mgr := resmgr.New(nil)
	ref, err := openResFile(mgr, path)
	if err != nil {
		return nil, "", err
	}
	defer mgr.CloseResFile(ref)

	h, err := mgr.GetResource(sndType, id)
	if err != nil {
		return nil, "", err
	}
	defer mgr.ReleaseResource(h)
	_, _, name, err = mgr.GetResInfo(h)
	if err != nil {
		return nil, "", err
	}
	return detach(mgr.Store(), h), name, nil
}

func firstSnd(path string) ([]byte, error) {
	mgr := resmgr.New(nil)
	ref, err := openResFile(mgr, path)
	if err != nil {
		return nil, err
	}
	defer mgr.CloseResFile(ref)

	h, err := mgr.Get1IndResource(sndType, 1)
	if err != nil {
		return nil, err
	}
	defer mgr.ReleaseResource(h)
	return detach(mgr.Store(), h), nil
}

// detach copies a handle's bytes out before the handle is released
func detach(store *blockstore.Store, h blockstore.Handle) []byte {
	p, err := store.Bytes(h)
	if err != nil {
		return nil
	}
	return append([]byte(nil), p...)
}

type engine struct {
	mixer *mixer.Mixer
	out   *hostaudio.Output
	cache *decodecache.Cache
	snd   *soundmgr.Manager
}

func startEngine(path string) (*engine, error) {
	m := mixer.New(sampleRate)
	out, err := hostaudio.Open(m)
	if err != nil {
		return nil, err
	}
	cache, err := decodecache.New(cacheBudget, cacheDir)
	if err != nil {
		out.Close()
		return nil, err
	}
	snd := soundmgr.New(m, cache)
	snd.SetCacheSalt(cacheSalt(path))
	return &engine{mixer: m, out: out, cache: cache, snd: snd}, nil
}

func (e *engine) wait(ctx context.Context, ch soundmgr.ChannelID) error {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			e.snd.DoImmediate(ch, soundmgr.Command{Cmd: soundmgr.QuietCmd})
			return ctx.Err()
		case <-tick.C:
		}
		st, err := e.snd.Status(ch)
		if err != nil {
			return err
		}
		if !st.Busy {
			return nil
		}
	}
}

func (e *engine) close() {
	e.snd.Shutdown()
	e.out.Close()
	mem, disk, miss := e.cache.Stats()
	slog.Debug("decodeCacheStats", "memoryHits", mem, "diskHits", disk, "misses", miss)
	if err := e.cache.Close(); err != nil {
		slog.Warn("decodeCacheClose", "err", err)
	}
}

func init() {
	sndCmd.PersistentFlags().StringVarP(&sndOutput, "output", "o", "", "output file (default ID.aiff or ID.snd)")
	sndCmd.AddCommand(sndInfoCmd, sndAIFFCmd, sndDecompressCmd, sndPlayCmd)
	rootCmd.AddCommand(sndCmd)
}
