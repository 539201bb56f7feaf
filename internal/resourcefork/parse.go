// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package resourcefork reads classic Mac OS resource forks
package resourcefork

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/elliotnunn/MacShim/internal/beio"
)

var (
	ErrFormat     = errors.New("not a valid resource fork")
	ErrCompressed = errors.New("compressed resources are not supported")
	ErrDuplicate  = errors.New("duplicate resource")
)

const flagCompressed = 0x01

// Resource describes one entry of the map. Data is read on demand.
type Resource struct {
	Type       Type
	ID         int16
	Flags      uint8
	Size       int32
	DataOffset int64 // of the first data byte, past the length prefix
	Name       string
}

// Fork is a fully parsed resource map
type Fork struct {
	mu    sync.Mutex // guards the cursor of r
	r     io.ReadSeeker
	end   int64 // length of r
	types []Type
	res   map[Type][]Resource // sorted by ID
}

func Parse(r io.ReadSeeker) (*Fork, error) {
	return ParseAt(r, 0)
}

// ParseAt reads a fork that starts at base within r
func ParseAt(r io.ReadSeeker, base int64) (*Fork, error) {
	f := &Fork{r: r, res: make(map[Type][]Resource)}
	if err := f.parse(beio.NewReader(r), base); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return f, nil
}

func (f *Fork) parse(br *beio.Reader, base int64) error {
	end, err := br.Size()
	if err != nil {
		return err
	}
	f.end = end
	if err := br.Goto(base); err != nil {
		return err
	}
	dataOff, err := br.U32()
	if err != nil {
		return err
	}
	mapOff, err := br.U32()
	if err != nil {
		return err
	}
	if err := br.Skip(4 + 4 + 112 + 128); err != nil { // lengths and reserved areas
		return err
	}
	if br.Tell() != int64(dataOff)+base {
		return fmt.Errorf("unexpected data offset %#x", dataOff)
	}
	dataSection := int64(dataOff) + base
	mapSection := int64(mapOff) + base

	if err := br.Goto(mapSection + 16 + 4 + 2 + 2); err != nil {
		return err
	}
	tlo, err := br.U16()
	if err != nil {
		return err
	}
	nlo, err := br.U16()
	if err != nil {
		return err
	}
	typeList := int64(tlo) + mapSection
	nameList := int64(nlo) + mapSection

	nTypesMinus1, err := br.U16()
	if err != nil {
		return err
	}
	nTypes := int(nTypesMinus1) + 1
	if nTypesMinus1 == 0xffff { // empty map
		nTypes = 0
	}
	for range nTypes {
		var te struct {
			Type   uint32
			Count  uint16
			Offset uint16
		}
		if err := br.ReadStruct(&te); err != nil {
			return err
		}
		t := Type(te.Type)
		if err := f.parseRefs(br, t, int(te.Count)+1, typeList+int64(te.Offset), dataSection, nameList); err != nil {
			return fmt.Errorf("type %q: %w", t, err)
		}
	}

	for t, list := range f.res {
		slices.SortFunc(list, func(a, b Resource) int { return cmp.Compare(a.ID, b.ID) })
		for i := 1; i < len(list); i++ {
			if list[i].ID == list[i-1].ID {
				return fmt.Errorf("%w: %q %d", ErrDuplicate, t, list[i].ID)
			}
		}
		f.types = append(f.types, t)
	}
	slices.Sort(f.types)
	return nil
}

func (f *Fork) parseRefs(br *beio.Reader, t Type, n int, refList, dataSection, nameList int64) error {
	defer br.Guard()()
	if err := br.Goto(refList); err != nil {
		return err
	}
	for range n {
		var re struct {
			ID      int16
			NameOff uint16
			Attr    uint32
			Handle  uint32
		}
		if err := br.ReadStruct(&re); err != nil {
			return err
		}
		res := Resource{
			Type:       t,
			ID:         re.ID,
			Flags:      uint8(re.Attr >> 24),
			DataOffset: int64(re.Attr&0xffffff) + dataSection,
		}
		if res.Flags&flagCompressed != 0 {
			return fmt.Errorf("%w: id %d", ErrCompressed, re.ID)
		}
		if err := f.parseRefBody(br, &res, re.NameOff, nameList); err != nil {
			return fmt.Errorf("id %d: %w", re.ID, err)
		}
		f.res[t] = append(f.res[t], res)
	}
	return nil
}

func (f *Fork) parseRefBody(br *beio.Reader, res *Resource, nameOff uint16, nameList int64) error {
	defer br.Guard()()
	if nameOff != 0xffff {
		if err := br.Goto(nameList + int64(nameOff)); err != nil {
			return err
		}
		name, err := br.ReadPascalString(0)
		if err != nil {
			return err
		}
		res.Name = name
	}
	if err := br.Goto(res.DataOffset); err != nil {
		return err
	}
	size, err := br.I32()
	if err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("negative size %d", size)
	}
	res.Size = size
	res.DataOffset += 4
	if res.DataOffset+int64(size) > f.end {
		return fmt.Errorf("%d bytes of data run past the end of the fork", size)
	}
	return nil
}

// Types lists every type in numeric order
func (f *Fork) Types() []Type {
	return slices.Clone(f.types)
}

// IDs lists the resources of a type in signed numeric order
func (f *Fork) IDs(t Type) []int16 {
	var ids []int16
	for _, r := range f.res[t] {
		ids = append(ids, r.ID)
	}
	return ids
}

// Resources lists the resources of a type in ID order
func (f *Fork) Resources(t Type) []Resource {
	return slices.Clone(f.res[t])
}

func (f *Fork) Lookup(t Type, id int16) (Resource, bool) {
	list := f.res[t]
	i, ok := slices.BinarySearchFunc(list, id, func(r Resource, id int16) int { return cmp.Compare(r.ID, id) })
	if !ok {
		return Resource{}, false
	}
	return list[i], true
}

// LookupName finds the first resource of a type with the given name
func (f *Fork) LookupName(t Type, name string) (Resource, bool) {
	for _, r := range f.res[t] {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// ReadData fetches the resource body from the underlying stream
func (f *Fork) ReadData(r Resource) ([]byte, error) {
	if r.Size < 0 || r.DataOffset < 0 || r.DataOffset+int64(r.Size) > f.end {
		return nil, fmt.Errorf("%w: resource %q %d does not fit in the fork", ErrFormat, r.Type, r.ID)
	}
	p := make([]byte, r.Size)
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.r.Seek(r.DataOffset, io.SeekStart)
	if err != nil {
		return nil, err
	}
	_, err = io.ReadFull(f.r, p)
	if err != nil {
		return nil, fmt.Errorf("resource %q %d: %w", r.Type, r.ID, err)
	}
	return p, nil
}

// Source is the stream the fork was parsed from
func (f *Fork) Source() io.ReadSeeker {
	return f.r
}
