// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build unix && !linux && !darwin

package fileid

import (
	"io/fs"
	"syscall"
)

// Get has no birth time to go on here, so only the inode and name count
func Get(fsys fs.FS, pathname string) (ID, error) {
	inf, err := fs.Lstat(fsys, pathname)
	if err != nil {
		return ID{}, err
	}
	stat, ok := inf.Sys().(*syscall.Stat_t)
	if !ok {
		return ID{}, ErrNotOS
	}
	return makeID(uint64(stat.Ino), 0, 0, pathname), nil
}
