// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resourcefork

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/elliotnunn/MacShim/internal/beio"
)

// Type is a four-character code such as 'snd '
type Type uint32

// ParseType accepts exactly four MacRoman characters
func ParseType(s string) (Type, error) {
	b, err := beio.ToMacRoman(s)
	if err != nil {
		return 0, err
	}
	if len(b) != 4 {
		return 0, fmt.Errorf("resource type must be 4 characters: %q", s)
	}
	return Type(binary.BigEndian.Uint32(b)), nil
}

func MustType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Type) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return beio.MacRoman(b[:])
}

// filename makes a name safe for use as a path element
func filename(s string) string {
	s = strings.ReplaceAll(s, "/", ":")
	if s == "." || s == ".." || s == "" {
		s = strings.Repeat("_", max(1, len(s)))
	}
	return s
}
