// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elliotnunn/MacShim/internal/resourcefork"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func writeFork(t *testing.T, path string, entries ...resourcefork.Entry) []byte {
	t.Helper()
	fork, err := resourcefork.Build(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, fork, 0o644); err != nil {
		t.Fatal(err)
	}
	return fork
}

func TestChangeSuffix(t *testing.T) {
	tests := []struct{ in, rules, want string }{
		{"model.3dmf.xz", ".xz", "model.3dmf"},
		{"sounds.txz", ".xz .txz=.tar", "sounds.tar"},
		{".xz", ".xz", ".xz"},
		{"plain", ".xz", "plain"},
	}
	for _, tt := range tests {
		if got := changeSuffix(tt.in, tt.rules); got != tt.want {
			t.Errorf("changeSuffix(%q, %q) = %q, expected %q", tt.in, tt.rules, got, tt.want)
		}
	}
}

func TestCacheBudget(t *testing.T) {
	t.Setenv("MACSHIM_CACHE_MB", "2.5")
	if got := calcCacheBudget(); got != 5*512*1024 {
		t.Errorf("expected 2.5 MiB, got %d", got)
	}

	t.Setenv("MACSHIM_CACHE_MB", "lots")
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a malformed budget")
		}
	}()
	calcCacheBudget()
}

func TestRsrcLs(t *testing.T) {
	dir := t.TempDir()
	writeFork(t, filepath.Join(dir, "a.rsrc"),
		resourcefork.Entry{Type: resourcefork.MustType("TEXT"), ID: 128, Name: "Hello", Data: []byte("HELLO")},
		resourcefork.Entry{Type: resourcefork.MustType("TEXT"), ID: 2, Data: []byte("two")},
		resourcefork.Entry{Type: sndType, ID: 1, Data: []byte{0}},
	)

	got := run(t, "rsrc", "ls", "--match", "TEXT/*", filepath.Join(dir, "*.rsrc"))
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 TEXT resources, got %q", got)
	}
	if !strings.Contains(lines[0], "\t2\t3\t") || !strings.Contains(lines[1], "\t128\t5\t\"Hello\"") {
		t.Errorf("expected resources in ID order, got %q", got)
	}
}

func TestRsrcCatSidecar(t *testing.T) {
	dir := t.TempDir()
	fork, err := resourcefork.Build([]resourcefork.Entry{
		{Type: resourcefork.MustType("STR "), ID: -16396, Data: []byte("sidecar")},
	})
	if err != nil {
		t.Fatal(err)
	}

	const off = 26 + 12
	hdr := make([]byte, off)
	copy(hdr, "\x00\x05\x16\x07\x00\x02\x00\x00")
	binary.BigEndian.PutUint16(hdr[24:], 1)
	binary.BigEndian.PutUint32(hdr[26:], 2)
	binary.BigEndian.PutUint32(hdr[30:], off)
	binary.BigEndian.PutUint32(hdr[34:], uint32(len(fork)))

	if err := os.WriteFile(filepath.Join(dir, "doc"), []byte("data fork only"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "._doc"), append(hdr, fork...), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := run(t, "rsrc", "cat", filepath.Join(dir, "doc"), "STR ", "-16396"); got != "sidecar" {
		t.Errorf("expected the AppleDouble resource, got %q", got)
	}
}

func TestMetafileDump(t *testing.T) {
	var b []byte
	u32 := func(v ...uint32) {
		for _, x := range v {
			b = binary.BigEndian.AppendUint32(b, x)
		}
	}
	f32 := func(v ...float32) {
		for _, x := range v {
			u32(math.Float32bits(x))
		}
	}

	b = append(b, "3DMF"...)
	u32(16, 1<<16|5, 0, 0, 0)
	b = append(b, "tmsh"...)
	u32(24 + 3 + 36 + 28)
	u32(1, 0, 0, 0, 3, 0)
	b = append(b, 0, 1, 2)
	f32(make([]float32, 9+6)...)
	u32(0)
	b = append(b, "kdif"...)
	u32(12)
	f32(1, 0.5, 0)

	path := filepath.Join(t.TempDir(), "model.3dmf")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	got := run(t, "3dmf", "dump", path)
	want := "group 0\n\tmesh 0: 1 triangles, 3 points, diffuse #ff8000\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
