// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package beio

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

var ErrStringTooLong = errors.New("pascal string longer than 255 bytes")

// ReadPascalString reads a length byte and that many MacRoman bytes,
// then skips to the next multiple of pad (counting the length byte).
// pad 0 or 1 means no alignment.
func (r *Reader) ReadPascalString(pad int) (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	raw, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	if skip := padding(1+int(n), pad); skip != 0 {
		if err := r.Skip(int64(skip)); err != nil {
			return "", err
		}
	}
	return MacRoman(raw), nil
}

// MacRoman decodes classic Mac text into UTF-8
func MacRoman(raw []byte) string {
	s, err := charmap.Macintosh.NewDecoder().Bytes(raw)
	if err != nil { // every byte maps, so this never happens
		return string(raw)
	}
	return string(s)
}

// ToMacRoman encodes UTF-8 into classic Mac text
func ToMacRoman(s string) ([]byte, error) {
	b, err := charmap.Macintosh.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("not representable in MacRoman: %q: %w", s, err)
	}
	return []byte(b), nil
}

func padding(n, pad int) int {
	if pad <= 1 {
		return 0
	}
	return (pad - n%pad) % pad
}
