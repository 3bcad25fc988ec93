package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteFileAtomic(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "DmModelInitialized")

	if err := fsys.WriteFileAtomic(path, []byte("0"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := fsys.WriteFileAtomic(path, []byte("1"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "1" {
		t.Errorf("expected %q, got %q", "1", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file to remain, found %d entries", len(entries))
	}
}

func TestOSFileSystem_WriteFileAtomic_MissingDir(t *testing.T) {
	fsys := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "missing", "key")

	if err := fsys.WriteFileAtomic(path, []byte("1"), 0644); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("/data/params/d", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if err := mfs.WriteFileAtomic("/data/params/d/key", []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := mfs.ReadFile("/data/params/d/key")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected %q, got %q", "hello", data)
	}
	if mfs.Writes() != 1 {
		t.Errorf("expected 1 write, got %d", mfs.Writes())
	}

	// Mutating the returned slice must not change stored contents.
	data[0] = 'X'
	again, _ := mfs.ReadFile("/data/params/d/key")
	if string(again) != "hello" {
		t.Errorf("stored data changed to %q", again)
	}
}

func TestMemoryFileSystem_WriteRequiresDir(t *testing.T) {
	mfs := NewMemoryFileSystem()

	err := mfs.WriteFileAtomic("/nowhere/key", []byte("1"), 0644)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.ReadFile("/missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_MkdirAllAndExists(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	for _, p := range []string{"/a", "/a/b", "/a/b/c"} {
		if !mfs.Exists(p) {
			t.Errorf("expected %s to exist", p)
		}
	}
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/d", 0755)
	_ = mfs.WriteFileAtomic("/d/f", []byte("x"), 0644)

	if err := mfs.Remove("/d"); err == nil {
		t.Error("expected error removing non-empty directory")
	}
	if err := mfs.Remove("/d/f"); err != nil {
		t.Fatalf("Remove file failed: %v", err)
	}
	if mfs.Exists("/d/f") {
		t.Error("file should be gone")
	}
	if err := mfs.Remove("/d"); err != nil {
		t.Fatalf("Remove empty dir failed: %v", err)
	}
	if err := mfs.Remove("/d"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist on second remove, got %v", err)
	}
}
