// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package hostaudio connects a mixer to the computer's sound output
package hostaudio

import (
	"errors"
)

var ErrUnavailable = errors.New("host audio needs a cgo build")

var errRate = errors.New("host audio: the output sample rate is fixed once opened")
