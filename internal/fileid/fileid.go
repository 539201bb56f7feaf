// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package fileid identifies a file on disk, so that a cache keyed on it
// goes stale when the file is replaced
package fileid

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"path"

	"github.com/cespare/xxhash/v2"
)

var ErrNotOS = errors.New("not a file on an operating system filesystem")

// ID = (64 bits of inode number) + (32 bits of hash of (birth time + filename))
type ID [12]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func makeID(ino uint64, sec int64, nsec uint32, pathname string) ID {
	var id ID
	binary.BigEndian.PutUint64(id[:], ino)
	var h xxhash.Digest
	binary.Write(&h, binary.BigEndian, sec)
	binary.Write(&h, binary.BigEndian, nsec)
	h.WriteString(path.Base(pathname))
	binary.BigEndian.PutUint32(id[8:], uint32(h.Sum64()))
	return id
}
