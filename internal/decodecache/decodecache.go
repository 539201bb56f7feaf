// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package decodecache keeps decompressed sound samples in memory and optionally on disk
package decodecache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/maphash"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/dgryski/go-tinylfu"
)

// Key names one decoding of one compressed payload
type Key struct {
	Sum      uint64
	Tag      uint32
	Channels uint16
}

func MakeKey(tag uint32, channels int, payload []byte) Key {
	return Key{Sum: xxhash.Sum64(payload), Tag: tag, Channels: uint16(channels)}
}

// Salted mixes in the identity of the file the payload came from
func (k Key) Salted(salt []byte) Key {
	var h xxhash.Digest
	h.Write(salt)
	binary.Write(&h, binary.BigEndian, k.Sum)
	k.Sum = h.Sum64()
	return k
}

func (k Key) bytes() []byte {
	b := make([]byte, 0, 15)
	b = append(b, 'd') // leave room for other record kinds
	b = binary.BigEndian.AppendUint64(b, k.Sum)
	b = binary.BigEndian.AppendUint32(b, k.Tag)
	b = binary.BigEndian.AppendUint16(b, k.Channels)
	return b
}

const typicalEntry = 64 << 10 // a second or so of decoded game audio

var seed = maphash.MakeSeed()

func hasher(k Key) uint64 {
	return maphash.Comparable(seed, k)
}

// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu    sync.Mutex
	mem   *tinylfu.T[Key, []byte]
	bytes int64
	db    *pebble.DB

	memHits, diskHits, misses int
}

// New makes a cache holding about budget bytes in memory.
// If dir is not empty then a persistent tier lives there.
func New(budget int64, dir string) (*Cache, error) {
	n := int(max(budget/typicalEntry, 16))
	c := &Cache{}
	c.mem = tinylfu.New[Key, []byte](n, n*10, hasher,
		tinylfu.OnEvict(func(_ Key, v []byte) { c.bytes -= int64(len(v)) }))

	if dir != "" {
		db, err := pebble.Open(dir, &pebble.Options{})
		if err != nil {
			return nil, fmt.Errorf("decode cache: %w", err)
		}
		c.db = db
	}
	return c, nil
}

// Get returns samples that the caller must not modify
func (c *Cache) Get(k Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pcm, ok := c.mem.Get(k); ok {
		c.memHits++
		return pcm, true
	}
	if c.db != nil {
		v, closer, err := c.db.Get(k.bytes())
		if err == nil {
			pcm := append([]byte(nil), v...)
			closer.Close()
			c.diskHits++
			c.add(k, pcm)
			return pcm, true
		} else if !errors.Is(err, pebble.ErrNotFound) {
			slog.Warn("decodeCacheReadFailed", "key", k.Sum, "err", err)
		}
	}
	c.misses++
	return nil, false
}

// Put keeps pcm, which the caller must not modify afterwards
func (c *Cache) Put(k Key, pcm []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(k, pcm)
	if c.db != nil {
		if err := c.db.Set(k.bytes(), pcm, pebble.NoSync); err != nil {
			slog.Warn("decodeCacheWriteFailed", "key", k.Sum, "err", err)
		}
	}
}

func (c *Cache) add(k Key, pcm []byte) {
	c.mem.Add(k, pcm)
	c.bytes += int64(len(pcm))
}

// Stats counts lookups since New
func (c *Cache) Stats() (memHits, diskHits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memHits, c.diskHits, c.misses
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Debug("decodeCacheClose", "memHits", c.memHits, "diskHits", c.diskHits, "misses", c.misses, "memBytes", c.bytes)
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
