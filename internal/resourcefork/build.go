// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resourcefork

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/elliotnunn/MacShim/internal/beio"
)

// Entry is a resource to be written by Build
type Entry struct {
	Type  Type
	ID    int16
	Name  string // empty means unnamed
	Flags uint8
	Data  []byte
}

// Build lays out a bare resource fork that Parse will accept
func Build(entries []Entry) ([]byte, error) {
	entries = slices.Clone(entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.ID, b.ID))
	})
	for i := 1; i < len(entries); i++ {
		if entries[i].Type == entries[i-1].Type && entries[i].ID == entries[i-1].ID {
			return nil, fmt.Errorf("%w: %q %d", ErrDuplicate, entries[i].Type, entries[i].ID)
		}
	}

	var mw beio.MemWriter
	w := beio.NewWriter(&mw)
	w.WriteRaw(make([]byte, 256)) // header is backpatched

	dataOffsets := make([]int64, len(entries))
	for i, e := range entries {
		dataOffsets[i] = w.Tell() - 256
		if dataOffsets[i] > 0xffffff {
			return nil, fmt.Errorf("resource data section too large")
		}
		w.U32(uint32(len(e.Data)))
		w.WriteRaw(e.Data)
	}
	dataLen := w.Tell() - 256

	mapStart := w.Tell()
	w.WriteRaw(make([]byte, 16+4+2+2))
	w.U16(28)
	nameListPos := w.Tell()
	w.U16(0) // backpatched

	var types []Type
	for _, e := range entries {
		if len(types) == 0 || types[len(types)-1] != e.Type {
			types = append(types, e.Type)
		}
	}
	w.U16(uint16(len(types) - 1))
	refListOffset := 2 + 8*len(types)
	for _, t := range types {
		n := 0
		for _, e := range entries {
			if e.Type == t {
				n++
			}
		}
		w.U32(uint32(t))
		w.U16(uint16(n - 1))
		w.U16(uint16(refListOffset))
		refListOffset += 12 * n
	}

	var names beio.MemWriter
	nw := beio.NewWriter(&names)
	for i, e := range entries {
		w.I16(e.ID)
		if e.Name == "" {
			w.U16(0xffff)
		} else {
			w.U16(uint16(nw.Tell()))
			nw.WritePascalString(e.Name, 0)
		}
		w.U32(uint32(e.Flags)<<24 | uint32(dataOffsets[i]))
		w.U32(0)
	}
	if err := nw.Err(); err != nil {
		return nil, err
	}

	nameListStart := w.Tell()
	w.WriteRaw(names.Bytes())
	mapLen := w.Tell() - mapStart

	w.Goto(nameListPos)
	w.U16(uint16(nameListStart - mapStart))
	for _, at := range []int64{0, mapStart} {
		w.Goto(at)
		w.U32(256)
		w.U32(uint32(mapStart))
		w.U32(uint32(dataLen))
		w.U32(uint32(mapLen))
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return mw.Bytes(), nil
}
