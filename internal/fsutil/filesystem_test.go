package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_WriteReadExists(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "TextLimitstaue.txt")

	if fsys.Exists(path) {
		t.Fatal("file should not exist yet")
	}
	if err := WriteFileAll(fsys, path, []byte("bdt 0.10     median exp 3.21\n")); err != nil {
		t.Fatalf("WriteFileAll failed: %v", err)
	}
	if !fsys.Exists(path) {
		t.Fatal("file should exist after write")
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "bdt 0.10     median exp 3.21\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestOSFileSystem_Truncate(t *testing.T) {
	fsys := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "Slopes_all.txt")
	if err := os.WriteFile(path, []byte("old slope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Truncate(fsys, path); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d after truncate, want 0", info.Size())
	}
}

func TestMemoryFileSystem_CreateAndRead(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/a.txt")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("hello ")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("world")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := m.ReadFile("out/./a.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("content = %q", data)
	}
}

func TestMemoryFileSystem_ReadNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := m.ReadFile("missing.txt"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMemoryFileSystem_TruncateExisting(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.WriteFile("Slopes_taue.txt", []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Truncate(m, "Slopes_taue.txt"); err != nil {
		t.Fatal(err)
	}
	data, err := m.ReadFile("Slopes_taue.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty file, got %q", data)
	}
}

func TestMemoryFileSystem_MkdirAllAndExists(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := WriteFileAll(m, "plots/run1/scan.png", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"plots", "plots/run1", "plots/run1/scan.png"} {
		if !m.Exists(p) {
			t.Errorf("%s should exist", p)
		}
	}
	if m.Exists("plots/run2") {
		t.Error("plots/run2 should not exist")
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	m := NewMemoryFileSystem()
	original := []byte("original")
	if err := m.WriteFile("f.txt", original, 0o644); err != nil {
		t.Fatal(err)
	}
	original[0] = 'X'

	data, _ := m.ReadFile("f.txt")
	if string(data) != "original" {
		t.Errorf("stored data was aliased: %q", data)
	}
	data[0] = 'Y'
	again, _ := m.ReadFile("f.txt")
	if string(again) != "original" {
		t.Errorf("returned data was aliased: %q", again)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	for _, name := range []string{"out/b.txt", "out/a.txt", "other/c.txt"} {
		if err := m.WriteFile(name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := m.Files("out/")
	if len(got) != 2 || got[0] != "out/a.txt" || got[1] != "out/b.txt" {
		t.Errorf("Files(out/) = %v", got)
	}
}
