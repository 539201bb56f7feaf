// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package resmgr keeps a stack of open resource forks and loads resources into handles
package resmgr

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/elliotnunn/MacShim/internal/blockstore"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/resourcefork"
)

type RefNum int16

// Meta is attached to every handle that GetResource returns
type Meta struct {
	Ref RefNum
	resourcefork.Resource
}

type openFork struct {
	ref  RefNum
	name string
	fork *resourcefork.Fork
	c    io.Closer
}

// Manager is safe for concurrent use, but the current-fork cursor is shared,
// so callers that interleave UseResFile should serialise themselves.
type Manager struct {
	mu      sync.Mutex
	store   *blockstore.Store
	stack   []openFork
	cur     int // index into stack, -1 when empty
	nextRef RefNum
	lastErr oserr.OSErr
}

// New creates a manager whose handles come from store, or from a private store if nil
func New(store *blockstore.Store) *Manager {
	if store == nil {
		store = blockstore.New()
	}
	return &Manager{store: store, cur: -1, nextRef: 1}
}

func (m *Manager) Store() *blockstore.Store {
	return m.store
}

// ResError returns the result of the most recent call
func (m *Manager) ResError() oserr.OSErr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// m.mu must be held
func (m *Manager) result(err error) error {
	m.lastErr = oserr.Code(err)
	return err
}

// OpenResFile parses the whole fork in r and makes it current.
// If r is an io.Closer it is closed by CloseResFile.
// On failure the stack is left as it was.
func (m *Manager) OpenResFile(name string, r io.ReadSeeker) (RefNum, error) {
	var base int64
	if ra, ok := r.(io.ReaderAt); ok {
		base = resourcefork.ForkOffset(ra)
	}
	fork, err := resourcefork.ParseAt(r, base)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		slog.Debug("resForkOpenFailed", "name", name, "err", err)
		m.result(oserr.ParamErr)
		return -1, fmt.Errorf("%s: %w", name, err)
	}
	c, _ := r.(io.Closer)
	ref := m.nextRef
	m.nextRef++
	m.stack = append(m.stack, openFork{ref: ref, name: name, fork: fork, c: c})
	m.cur = len(m.stack) - 1
	m.result(nil)
	return ref, nil
}

// FSpOpenResFile opens a file from fsys.
// Files that cannot seek are read into memory.
func (m *Manager) FSpOpenResFile(fsys fs.FS, name string) (RefNum, error) {
	f, err := fsys.Open(name)
	if err != nil {
		m.mu.Lock()
		m.result(oserr.ParamErr)
		m.mu.Unlock()
		return -1, err
	}
	if rs, ok := f.(io.ReadSeeker); ok {
		ref, err := m.OpenResFile(name, rs)
		if err != nil {
			f.Close()
		}
		return ref, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		m.mu.Lock()
		m.result(oserr.ParamErr)
		m.mu.Unlock()
		return -1, err
	}
	return m.OpenResFile(name, bytes.NewReader(data))
}

// m.mu must be held
func (m *Manager) find(ref RefNum) (int, error) {
	if ref <= 0 {
		return -1, fmt.Errorf("refNum %d: %w", ref, oserr.ParamErr)
	}
	for i, of := range m.stack {
		if of.ref == ref {
			return i, nil
		}
	}
	return -1, fmt.Errorf("refNum %d: %w", ref, oserr.RfNumErr)
}

func (m *Manager) UseResFile(ref RefNum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(ref)
	if err != nil {
		return m.result(err)
	}
	m.cur = i
	return m.result(nil)
}

// CurResFile returns 0 when no fork is open
func (m *Manager) CurResFile() RefNum {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur < 0 {
		return 0
	}
	return m.stack[m.cur].ref
}

func (m *Manager) CloseResFile(ref RefNum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(ref); err != nil {
		return m.result(err)
	}
	kept := m.stack[:0]
	for _, of := range m.stack {
		if of.ref != ref {
			kept = append(kept, of)
		} else if of.c != nil {
			of.c.Close()
		}
	}
	clear(m.stack[len(kept):])
	m.stack = kept
	m.cur = min(m.cur, len(m.stack)-1)
	return m.result(nil)
}

// m.mu must be held
func (m *Manager) current() *resourcefork.Fork {
	if m.cur < 0 {
		return nil
	}
	return m.stack[m.cur].fork
}

// Count1Resources counts resources of a type in the current fork only
func (m *Manager) Count1Resources(t resourcefork.Type) int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result(nil)
	f := m.current()
	if f == nil {
		return 0
	}
	return int16(len(f.IDs(t)))
}

func (m *Manager) Count1Types() int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.current()
	if f == nil {
		return 0
	}
	return int16(len(f.Types()))
}

// Get1IndType is 1-based. Out of range gives type 0.
func (m *Manager) Get1IndType(index int16) resourcefork.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.current()
	if f == nil {
		return 0
	}
	types := f.Types()
	if index < 1 || int(index) > len(types) {
		return 0
	}
	return types[index-1]
}
