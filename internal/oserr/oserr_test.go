// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package oserr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want OSErr
	}{
		{nil, NoErr},
		{ResNotFound, ResNotFound},
		{fmt.Errorf("GetResource 'snd ' 128: %w", ResNotFound), ResNotFound},
		{errors.New("something else"), ParamErr},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want {
			t.Errorf("Code(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestMessage(t *testing.T) {
	if s := BadChannel.Error(); s != "badChannel (-205)" {
		t.Errorf("unexpected message %q", s)
	}
	if s := OSErr(-99).Error(); s != "OSErr -99" {
		t.Errorf("unexpected message %q", s)
	}
}
