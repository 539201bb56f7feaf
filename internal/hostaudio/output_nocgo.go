// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build !cgo

package hostaudio

import (
	"github.com/elliotnunn/MacShim/internal/mixer"
)

// Output is a placeholder when there is no audio backend
type Output struct{}

func Open(m *mixer.Mixer) (*Output, error) {
	return nil, ErrUnavailable
}

func (o *Output) Close() error {
	return nil
}
