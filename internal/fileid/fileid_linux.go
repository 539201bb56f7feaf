// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fileid

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func Get(fsys fs.FS, pathname string) (ID, error) {
	// statx on the open file gets the birth time,
	// but first make sure that opening will not follow a symlink
	inf, err := fs.Lstat(fsys, pathname)
	if err != nil {
		return ID{}, err
	}
	if inf.Mode().Type() == fs.ModeSymlink {
		return ID{}, errors.New("is a symlink")
	}
	if _, isos := inf.Sys().(*syscall.Stat_t); !isos {
		return ID{}, ErrNotOS
	}

	f, err := fsys.Open(pathname)
	if err != nil {
		return ID{}, err
	}
	defer f.Close()

	osf, ok := f.(*os.File)
	if !ok {
		return ID{}, ErrNotOS
	}
	conn, err := osf.SyscallConn()
	if err != nil {
		return ID{}, err
	}

	var stat unix.Statx_t
	var inerr error
	err = conn.Control(func(fd uintptr) {
		inerr = unix.Statx(int(fd), "",
			unix.AT_EMPTY_PATH|unix.AT_STATX_FORCE_SYNC,
			unix.STATX_BTIME|unix.STATX_INO,
			&stat)
	})
	if err != nil {
		return ID{}, err
	} else if inerr != nil {
		return ID{}, &fs.PathError{Op: "statx", Path: pathname, Err: inerr}
	}

	if stat.Mask&unix.STATX_BTIME == 0 { // filesystem does not record it
		stat.Btime = unix.StatxTimestamp{}
	}
	return makeID(stat.Ino, stat.Btime.Sec, stat.Btime.Nsec, pathname), nil
}
