// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fileid

import (
	"io/fs"
	"syscall"
)

func Get(fsys fs.FS, pathname string) (ID, error) {
	inf, err := fs.Lstat(fsys, pathname)
	if err != nil {
		return ID{}, err
	}
	stat, ok := inf.Sys().(*syscall.Stat_t)
	if !ok {
		return ID{}, ErrNotOS
	}
	return makeID(stat.Ino, stat.Birthtimespec.Sec, uint32(stat.Birthtimespec.Nsec), pathname), nil
}
