// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fileid

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"testing/fstest"
)

func TestNotOS(t *testing.T) {
	fsys := fstest.MapFS{"Sounds": {Data: []byte("x")}}
	if _, err := Get(fsys, "Sounds"); !errors.Is(err, ErrNotOS) {
		t.Errorf("expected ErrNotOS, got %v", err)
	}
}

func TestDisk(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("no birth time on", runtime.GOOS)
	}
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fsys := os.DirFS(dir)

	a1, err := Get(fsys, "a")
	if err != nil {
		t.Skipf("no file identity here: %v", err)
	}
	a2, err := Get(fsys, "a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Get(fsys, "b")
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 {
		t.Errorf("identity of one file changed: %v then %v", a1, a2)
	}
	if a1 == b {
		t.Errorf("two files share identity %v", a1)
	}
}
