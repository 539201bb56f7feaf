// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package oserr holds the Toolbox result codes that callers are expected to recover from
package oserr

import (
	"errors"
	"strconv"
)

// OSErr is a classic Mac OS result code. The zero value means success,
// so a nil error should always be returned instead of NoErr.
type OSErr int16

const (
	NoErr         OSErr = 0
	UnimpErr      OSErr = -4
	ParamErr      OSErr = -50
	RfNumErr      OSErr = -51
	ResNotFound   OSErr = -192
	BadChannel    OSErr = -205
	BadFormat     OSErr = -206
	BadFileFormat OSErr = -208
)

var names = map[OSErr]string{
	NoErr:         "noErr",
	UnimpErr:      "unimpErr",
	ParamErr:      "paramErr",
	RfNumErr:      "rfNumErr",
	ResNotFound:   "resNotFound",
	BadChannel:    "badChannel",
	BadFormat:     "badFormat",
	BadFileFormat: "badFileFormat",
}

func (e OSErr) Error() string {
	if n, ok := names[e]; ok {
		return n + " (" + strconv.Itoa(int(e)) + ")"
	}
	return "OSErr " + strconv.Itoa(int(e))
}

// Code extracts the result code from an error chain:
// nil is NoErr, and an error that carries no code is ParamErr
func Code(err error) OSErr {
	if err == nil {
		return NoErr
	}
	var e OSErr
	if errors.As(err, &e) {
		return e
	}
	return ParamErr
}
