// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package resmgr

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/elliotnunn/MacShim/internal/blockstore"
	"github.com/elliotnunn/MacShim/internal/oserr"
	"github.com/elliotnunn/MacShim/internal/resourcefork"
)

var (
	text = resourcefork.MustType("TEXT")
	snd  = resourcefork.MustType("snd ")
)

func fork(t *testing.T, entries ...resourcefork.Entry) *bytes.Reader {
	t.Helper()
	b, err := resourcefork.Build(entries)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func contents(t *testing.T, m *Manager, h blockstore.Handle) string {
	t.Helper()
	b, err := m.Store().Bytes(h)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestShadowing(t *testing.T) {
	m := New(nil)
	a, err := m.OpenResFile("a", fork(t,
		resourcefork.Entry{Type: text, ID: 128, Data: []byte("from a")},
		resourcefork.Entry{Type: text, ID: 129, Data: []byte("only a")},
	))
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.OpenResFile("b", fork(t,
		resourcefork.Entry{Type: text, ID: 128, Data: []byte("from b"), Name: "shadow"},
	))
	if err != nil {
		t.Fatal(err)
	}
	if m.CurResFile() != b {
		t.Errorf("the most recently opened fork should be current")
	}

	h, err := m.GetResource(text, 128)
	if err != nil {
		t.Fatal(err)
	}
	if s := contents(t, m, h); s != "from b" {
		t.Errorf("expected the newer fork to win, got %q", s)
	}
	if id, typ, name, err := m.GetResInfo(h); err != nil || id != 128 || typ != text || name != "shadow" {
		t.Errorf("unexpected GetResInfo: %d %q %q %v", id, typ, name, err)
	}

	h, err = m.GetResource(text, 129)
	if err != nil || contents(t, m, h) != "only a" {
		t.Errorf("expected to fall through to the older fork: %v", err)
	}
	if _, err := m.Get1Resource(text, 129); !errors.Is(err, oserr.ResNotFound) {
		t.Errorf("Get1Resource should not search older forks, got %v", err)
	}

	if err := m.UseResFile(a); err != nil {
		t.Fatal(err)
	}
	h, _ = m.GetResource(text, 128)
	if s := contents(t, m, h); s != "from a" {
		t.Errorf("after UseResFile the newer fork should be invisible, got %q", s)
	}

	if err := m.CloseResFile(b); err != nil {
		t.Fatal(err)
	}
	if m.CurResFile() != a {
		t.Errorf("expected fork a to remain current")
	}
	if err := m.CloseResFile(a); err != nil {
		t.Fatal(err)
	}
	if m.CurResFile() != 0 {
		t.Errorf("expected no current fork")
	}
	if _, err := m.GetResource(text, 128); !errors.Is(err, oserr.ResNotFound) || m.ResError() != oserr.ResNotFound {
		t.Errorf("expected resNotFound with an empty stack, got %v", err)
	}
}

func TestRefNums(t *testing.T) {
	m := New(nil)
	if err := m.UseResFile(0); !errors.Is(err, oserr.ParamErr) {
		t.Errorf("refNum 0 should be rejected, got %v", err)
	}
	if err := m.UseResFile(77); !errors.Is(err, oserr.RfNumErr) || m.ResError() != oserr.RfNumErr {
		t.Errorf("unknown refNum should give rfNumErr, got %v", err)
	}
	if err := m.CloseResFile(-1); !errors.Is(err, oserr.ParamErr) {
		t.Errorf("negative refNum should be rejected, got %v", err)
	}
}

func TestFailedOpenPushesNothing(t *testing.T) {
	m := New(nil)
	ref, err := m.OpenResFile("good", fork(t, resourcefork.Entry{Type: text, ID: 1}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.OpenResFile("bad", bytes.NewReader([]byte("not a resource fork at all")))
	if err == nil {
		t.Fatal("expected an error")
	}
	if m.CurResFile() != ref {
		t.Errorf("a failed open must leave the stack alone")
	}
}

func TestIndexed(t *testing.T) {
	m := New(nil)
	m.OpenResFile("x", fork(t,
		resourcefork.Entry{Type: snd, ID: 200, Data: []byte("two hundred")},
		resourcefork.Entry{Type: snd, ID: -5, Data: []byte("minus five")},
		resourcefork.Entry{Type: text, ID: 1},
	))
	if n := m.Count1Types(); n != 2 {
		t.Errorf("expected 2 types, got %d", n)
	}
	if n := m.Count1Resources(snd); n != 2 {
		t.Errorf("expected 2 sounds, got %d", n)
	}
	if n := m.Count1Resources(resourcefork.MustType("PICT")); n != 0 {
		t.Errorf("expected no pictures, got %d", n)
	}
	if typ := m.Get1IndType(2); typ != snd {
		t.Errorf("expected 'snd ' second in numeric order, got %q", typ)
	}
	if typ := m.Get1IndType(3); typ != 0 {
		t.Errorf("out of range type index should give 0, got %q", typ)
	}
	h, err := m.Get1IndResource(snd, 1)
	if err != nil || contents(t, m, h) != "minus five" {
		t.Errorf("expected resources in signed ID order: %v", err)
	}
	if _, err := m.Get1IndResource(snd, 3); !errors.Is(err, oserr.ResNotFound) {
		t.Errorf("expected resNotFound, got %v", err)
	}
}

func TestHandles(t *testing.T) {
	m := New(nil)
	m.OpenResFile("x", fork(t, resourcefork.Entry{Type: text, ID: 1, Data: []byte("abc"), Name: "Name"}))

	h, err := m.GetNamedResource(text, "Name")
	if err != nil {
		t.Fatal(err)
	}
	if n, err := m.SizeResource(h); err != nil || n != 3 {
		t.Errorf("expected size 3, got %d %v", n, err)
	}
	if err := m.DetachResource(h); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := m.GetResInfo(h); !errors.Is(err, oserr.ResNotFound) {
		t.Errorf("a detached handle has no resource info, got %v", err)
	}
	if err := m.DetachResource(h); !errors.Is(err, oserr.ResNotFound) {
		t.Errorf("detaching twice should give resNotFound, got %v", err)
	}
	if contents(t, m, h) != "abc" {
		t.Errorf("detaching must keep the data")
	}

	if err := m.ReleaseResource(h); err != nil {
		t.Fatal(err)
	}
	if err := m.ReleaseResource(h); !errors.Is(err, blockstore.ErrDoubleFree) {
		t.Errorf("expected a double free to be caught, got %v", err)
	}

	if err := m.WriteResource(h); !errors.Is(err, oserr.UnimpErr) {
		t.Errorf("expected unimpErr, got %v", err)
	}
}

func TestFSpOpen(t *testing.T) {
	b, _ := resourcefork.Build([]resourcefork.Entry{{Type: text, ID: 7, Data: []byte("seven")}})
	fsys := fstest.MapFS{"Game.rsrc": &fstest.MapFile{Data: b}}
	m := New(nil)
	if _, err := m.FSpOpenResFile(fsys, "Game.rsrc"); err != nil {
		t.Fatal(err)
	}
	h, err := m.GetResource(text, 7)
	if err != nil || contents(t, m, h) != "seven" {
		t.Errorf("expected seven: %v", err)
	}
	if _, err := m.FSpOpenResFile(fsys, "Missing.rsrc"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
