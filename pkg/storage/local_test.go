package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return ls
}

func TestNewLocalStorageCreatesBuckets(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewLocalStorage(dir, "http://localhost:8080"); err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	for _, bucket := range []string{BucketMatchVideos, BucketAvatars, BucketReels} {
		info, err := os.Stat(filepath.Join(dir, bucket))
		if err != nil {
			t.Errorf("Expected bucket directory %q: %v", bucket, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("Expected %q to be a directory", bucket)
		}
	}
}

func TestSaveFile(t *testing.T) {
	ls := newTestStorage(t)
	content := []byte("fake video data")

	filename, err := ls.SaveFile(BucketMatchVideos, bytes.NewReader(content), FileInfo{
		Filename:    "rally.mp4",
		ContentType: "video/mp4",
		Size:        int64(len(content)),
	})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	if !strings.HasSuffix(filename, ".mp4") {
		t.Errorf("Expected stored name to keep the extension, got %q", filename)
	}
	if filename == "rally.mp4" {
		t.Error("Expected stored name to be randomized, not the upload name")
	}

	saved, err := os.ReadFile(filepath.Join(ls.BasePath(), BucketMatchVideos, filename))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(saved, content) {
		t.Error("Saved content does not match the upload")
	}
}

func TestSaveFileDefaultsExtension(t *testing.T) {
	ls := newTestStorage(t)

	filename, err := ls.SaveFile(BucketReels, strings.NewReader("reel"), FileInfo{Filename: "output"})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	if !strings.HasSuffix(filename, ".mp4") {
		t.Errorf("Expected default .mp4 extension, got %q", filename)
	}
}

func TestOpenFile(t *testing.T) {
	ls := newTestStorage(t)
	content := []byte("avatar bytes")

	filename, err := ls.SaveFile(BucketAvatars, bytes.NewReader(content), FileInfo{Filename: "me.png"})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	f, err := ls.OpenFile(BucketAvatars, filename)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to read opened file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("Opened content does not match the upload")
	}
}

func TestOpenFileRejectsTraversal(t *testing.T) {
	ls := newTestStorage(t)

	if _, err := ls.OpenFile(BucketAvatars, "../"+BucketMatchVideos+"/secret.mp4"); err == nil {
		t.Error("Expected traversal path to be rejected")
	}
	if err := ls.DeleteFile(BucketAvatars, "../../etc/passwd"); err == nil {
		t.Error("Expected traversal delete to be rejected")
	}
}

func TestDeleteFile(t *testing.T) {
	ls := newTestStorage(t)

	filename, err := ls.SaveFile(BucketReels, strings.NewReader("reel"), FileInfo{Filename: "reel.mp4"})
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	if err := ls.DeleteFile(BucketReels, filename); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ls.BasePath(), BucketReels, filename)); !os.IsNotExist(err) {
		t.Error("Expected file to be gone after delete")
	}

	if err := ls.DeleteFile(BucketReels, filename); err == nil {
		t.Error("Expected delete of a missing file to fail")
	}
}

func TestPublicURL(t *testing.T) {
	ls := newTestStorage(t)

	got := ls.PublicURL(BucketReels, "abc.mp4")
	want := "http://localhost:8080/media/" + BucketReels + "/abc.mp4"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
