// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package blockstore hands out tagged, resizable byte buffers
package blockstore

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrDoubleFree = errors.New("handle already freed")
	ErrBadHandle  = errors.New("not a live handle")
	ErrSize       = errors.New("invalid block size")
)

const (
	magicLive = 0x4c495645 // 'LIVE'
	magicDead = 0x44454144 // 'DEAD'
)

// Handle refers to a block. The zero Handle is never valid.
type Handle uint32

type block struct {
	magic uint32
	data  []byte
	meta  any // back-reference to whatever produced the block
}

// Store is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	blocks []block // Handle h lives at index h-1
	total  int64
	live   int
}

func New() *Store {
	return &Store{}
}

// Alloc returns a zeroed block
func (s *Store) Alloc(size int) (Handle, error) {
	if size < 0 || size > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrSize, size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, block{magic: magicLive, data: make([]byte, size)})
	s.total += int64(size)
	s.live++
	return Handle(len(s.blocks)), nil
}

// AllocFrom copies p into a new block
func (s *Store) AllocFrom(p []byte) (Handle, error) {
	h, err := s.Alloc(len(p))
	if err != nil {
		return 0, err
	}
	b, _ := s.Bytes(h)
	copy(b, p)
	return h, nil
}

func (s *Store) get(h Handle) (*block, error) {
	if h == 0 || int(h) > len(s.blocks) {
		return nil, fmt.Errorf("%w: %d", ErrBadHandle, h)
	}
	b := &s.blocks[h-1]
	switch b.magic {
	case magicLive:
		return b, nil
	case magicDead:
		return nil, fmt.Errorf("%w: %d", ErrDoubleFree, h)
	default:
		return nil, fmt.Errorf("%w: corrupted %d", ErrBadHandle, h)
	}
}

func (s *Store) Free(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return err
	}
	s.total -= int64(len(b.data))
	s.live--
	*b = block{magic: magicDead}
	return nil
}

func (s *Store) Size(h Handle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return 0, err
	}
	return len(b.data), nil
}

// Bytes exposes the block contents directly.
// The slice is invalidated by Resize and Free.
func (s *Store) Bytes(h Handle) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return nil, err
	}
	return b.data, nil
}

// Resize grows (zero-filling) or truncates a block
func (s *Store) Resize(h Handle, size int) error {
	if size < 0 || size > math.MaxInt32 {
		return fmt.Errorf("%w: %d", ErrSize, size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return err
	}
	s.total += int64(size - len(b.data))
	if size <= cap(b.data) {
		old := len(b.data)
		b.data = b.data[:size]
		clear(b.data[min(old, size):])
	} else {
		grown := make([]byte, size)
		copy(grown, b.data)
		b.data = grown
	}
	return nil
}

// Attach associates metadata with a block, replacing any previous value
func (s *Store) Attach(h Handle, meta any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return err
	}
	b.meta = meta
	return nil
}

func (s *Store) Meta(h Handle) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return nil, err
	}
	return b.meta, nil
}

// Detach removes and returns the metadata
func (s *Store) Detach(h Handle) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.get(h)
	if err != nil {
		return nil, err
	}
	m := b.meta
	b.meta = nil
	return m, nil
}

// Stats reports the bytes held by live blocks and how many there are
func (s *Store) Stats() (bytes int64, blocks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.live
}
