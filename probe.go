// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/MacShim/internal/fileid"
	"github.com/elliotnunn/MacShim/internal/resmgr"
	"github.com/elliotnunn/MacShim/internal/resourcefork"
	"github.com/therootcompany/xz"
)

// input is a file ready for parsing, decompressed into memory if need be
type input struct {
	io.ReadSeeker
	name string // base name with any compression suffix removed
	path string
	c    io.Closer
}

func (in *input) ReadAt(p []byte, off int64) (int, error) {
	return in.ReadSeeker.(io.ReaderAt).ReadAt(p, off)
}

func (in *input) Close() error {
	if in.c == nil {
		return nil
	}
	return in.c.Close()
}

func openInput(path string) (*input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var header [6]byte
	n, err := io.ReadFull(f, header[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	if string(header[:n]) == "\xfd7zXZ\x00" {
		defer f.Close()
		r, err := xz.NewReader(f, xz.DefaultDictMax)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		slog.Debug("xzDecompressed", "path", path, "size", len(data))
		name := changeSuffix(filepath.Base(path), ".xz .txz=.tar")
		return &input{ReadSeeker: bytes.NewReader(data), name: name, path: path}, nil
	}
	return &input{ReadSeeker: f, name: filepath.Base(path), path: path, c: f}, nil
}

// forkCandidates lists where the resource fork of path might be:
// inside the file itself, or in an AppleDouble "._" sidecar
func forkCandidates(path string) []string {
	return []string{path, filepath.Join(filepath.Dir(path), "._"+filepath.Base(path))}
}

func openFork(path string) (*resourcefork.Fork, *input, error) {
	var firstErr error
	for _, p := range forkCandidates(path) {
		in, err := openInput(p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fork, err := resourcefork.ParseAt(in, resourcefork.ForkOffset(in))
		if err == nil {
			return fork, in, nil
		}
		in.Close()
		if firstErr == nil || errors.Is(firstErr, os.ErrNotExist) {
			firstErr = fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil, nil, firstErr
}

// openResFile pushes the fork of path onto the resource chain
func openResFile(mgr *resmgr.Manager, path string) (resmgr.RefNum, error) {
	var firstErr error
	for _, p := range forkCandidates(path) {
		in, err := openInput(p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ref, err := mgr.OpenResFile(in.name, in)
		if err == nil {
			return ref, nil
		}
		in.Close()
		if firstErr == nil || errors.Is(firstErr, os.ErrNotExist) {
			firstErr = err
		}
		if !errors.Is(err, resourcefork.ErrFormat) {
			break
		}
	}
	return -1, firstErr
}

// cacheSalt ties decoded sounds to the identity of the file they came from
func cacheSalt(path string) []byte {
	id, err := fileid.Get(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		slog.Debug("noFileIdentity", "path", path, "err", err)
		return nil
	}
	return id[:]
}

// expandArgs applies shell-style globbing, including "**", to every argument.
// An argument matching nothing is kept so that opening it reports the error.
func expandArgs(args []string) ([]string, error) {
	var ret []string
	for _, a := range args {
		matches, err := doublestar.FilepathGlob(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a, err)
		}
		if len(matches) == 0 {
			matches = []string{a}
		}
		ret = append(ret, matches...)
	}
	return ret, nil
}

func changeSuffix(s string, suffixes string) string {
	for _, rule := range strings.Split(suffixes, " ") {
		from, to, _ := strings.Cut(rule, "=")
		if strings.HasSuffix(s, from) && len(s) > len(from) {
			return s[:len(s)-len(from)] + to
		}
	}
	return s
}
