// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resourcefork

import (
	"bytes"
	"io"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FS presents the fork as a tree of "TYPE/ID" files,
// so that resources can be selected with fs.Glob and friends
func (f *Fork) FS() fs.FS {
	return forkFS{f}
}

type forkFS struct{ f *Fork }

func (fsys forkFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &dir{name: ".", entries: fsys.typeEntries()}, nil
	}
	tname, idname, hasID := strings.Cut(name, "/")
	t, ok := fsys.typeNamed(tname)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if !hasID {
		return &dir{name: tname, entries: fsys.resEntries(t)}, nil
	}
	id, err := strconv.ParseInt(idname, 10, 16)
	if err != nil || strconv.Itoa(int(id)) != idname {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	r, ok := fsys.f.Lookup(t, int16(id))
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data, err := fsys.f.ReadData(r)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &file{Reader: bytes.NewReader(data), info: resInfo(r)}, nil
}

func (fsys forkFS) typeNamed(name string) (Type, bool) {
	for _, t := range fsys.f.types {
		if filename(t.String()) == name {
			return t, true
		}
	}
	return 0, false
}

func (fsys forkFS) typeEntries() []fs.DirEntry {
	var ret []fs.DirEntry
	for _, t := range fsys.f.types {
		ret = append(ret, info{name: filename(t.String()), dir: true})
	}
	slices.SortFunc(ret, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })
	return ret
}

func (fsys forkFS) resEntries(t Type) []fs.DirEntry {
	var ret []fs.DirEntry
	for _, r := range fsys.f.res[t] {
		ret = append(ret, resInfo(r))
	}
	slices.SortFunc(ret, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })
	return ret
}

func resInfo(r Resource) info {
	return info{name: strconv.Itoa(int(r.ID)), size: int64(r.Size), sys: r}
}

// info is both fs.FileInfo and fs.DirEntry
type info struct {
	name string
	dir  bool
	size int64
	sys  any
}

func (i info) Name() string               { return i.name }
func (i info) IsDir() bool                { return i.dir }
func (i info) Info() (fs.FileInfo, error) { return i, nil }
func (i info) Size() int64                { return i.size }
func (i info) ModTime() time.Time         { return time.Time{} }
func (i info) Sys() any                   { return i.sys } // Resource for files

func (i info) Type() fs.FileMode { return i.Mode().Type() }

func (i info) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

type file struct {
	*bytes.Reader
	info info
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

type dir struct {
	name    string
	entries []fs.DirEntry
	offset  int
}

func (d *dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dir) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(d.entries) - d.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := d.entries[d.offset:][:n]
	d.offset += n
	return slices.Clone(list), nil
}

func (d *dir) Stat() (fs.FileInfo, error) { return info{name: d.name, dir: true}, nil }
func (d *dir) Close() error               { return nil }
