package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_ReadDirAndWrite(t *testing.T) {
	osfs := OSFileSystem{}
	dir := t.TempDir()

	if err := osfs.MkdirAll(filepath.Join(dir, "P01_01", "pos_info"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := osfs.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	entries, err := osfs.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !IsDir(osfs, filepath.Join(dir, "P01_01")) {
		t.Error("expected P01_01 to be a directory")
	}
	if IsDir(osfs, filepath.Join(dir, "notes.txt")) {
		t.Error("expected notes.txt not to be a directory")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("0.000000 0 0 0 0 0 0 1\n")
	if err := mfs.WriteFile("/data/pos_info/PosInfo_0_10_Frame.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/data/pos_info/PosInfo_0_10_Frame.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// Parents are implied by the write.
	if !mfs.Exists("/data/pos_info") || !IsDir(mfs, "/data") {
		t.Error("expected parent directories to exist")
	}
}

func TestMemoryFileSystem_CreateAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/validFrame.csv")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte(",t,x\n0,0,1\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := mfs.Open("/out/validFrame.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != ",t,x\n0,0,1\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "validFrame.csv" || info.Size() != int64(len(data)) {
		t.Errorf("unexpected stat %s/%d", info.Name(), info.Size())
	}
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/rgb/train/P01/P01_02/frame_0000000001.jpg", nil, 0644)
	_ = mfs.WriteFile("/rgb/train/P01/P01_01/frame_0000000001.jpg", nil, 0644)
	_ = mfs.WriteFile("/rgb/train/P01/readme.txt", []byte("hi"), 0644)
	_ = mfs.MkdirAll("/rgb/train/P01/P01_03", 0755)

	entries, err := mfs.ReadDir("/rgb/train/P01")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	want := []struct {
		name  string
		isDir bool
	}{
		{"P01_01", true},
		{"P01_02", true},
		{"P01_03", true},
		{"readme.txt", false},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Name() != w.name || entries[i].IsDir() != w.isDir {
			t.Errorf("entry %d = %s (dir=%v), want %s (dir=%v)", i, entries[i].Name(), entries[i].IsDir(), w.name, w.isDir)
		}
	}

	if _, err := mfs.ReadDir("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_StatAndRemove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/a/b.txt", []byte("abc"), 0600)

	info, err := mfs.Stat("/a/b.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 3 || info.Mode() != 0600 || info.IsDir() {
		t.Errorf("unexpected info: size=%d mode=%v dir=%v", info.Size(), info.Mode(), info.IsDir())
	}

	if err := mfs.Remove("/a"); err == nil {
		t.Error("expected error removing non-empty directory")
	}
	if err := mfs.Remove("/a/b.txt"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := mfs.Remove("/a"); err != nil {
		t.Fatalf("Remove dir failed: %v", err)
	}
	if mfs.Exists("/a") {
		t.Error("expected /a to be gone")
	}
	if _, err := mfs.Stat("/a/b.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	mfs := NewMemoryFileSystem()

	original := []byte("original")
	_ = mfs.WriteFile("/iso.txt", original, 0644)
	original[0] = 'X'

	data, _ := mfs.ReadFile("/iso.txt")
	if string(data) != "original" {
		t.Errorf("stored data was mutated: %q", data)
	}

	data[0] = 'Y'
	again, _ := mfs.ReadFile("/iso.txt")
	if string(again) != "original" {
		t.Errorf("returned slice aliases storage: %q", again)
	}
}
