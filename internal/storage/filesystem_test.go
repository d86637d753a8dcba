package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreWrite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	store, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	path, err := store.Write(context.Background(), "karl-selfie-1.png", []byte("png"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if path != filepath.Join(root, "karl-selfie-1.png") {
		t.Fatalf("unexpected path %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "png" {
		t.Fatalf("unexpected content %q (%v)", got, err)
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a.png", want: "a.png"},
		{in: "/abs/a.png", want: "abs/a.png"},
		{in: "./x/../a.png", want: "a.png"},
		{in: "..", wantErr: true},
		{in: "../escape.png", wantErr: true},
		{in: " ", wantErr: true},
	}
	for _, tc := range cases {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestResultFileName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	cases := map[string]string{
		"":                         "karl-selfie-1700000000123.png",
		"image/png":                "karl-selfie-1700000000123.png",
		"image/jpeg":               "karl-selfie-1700000000123.jpg",
		"IMAGE/WEBP":               "karl-selfie-1700000000123.webp",
		"image/jpeg; charset=none": "karl-selfie-1700000000123.jpg",
		"application/octet-stream": "karl-selfie-1700000000123.png",
	}
	for mime, want := range cases {
		if got := ResultFileName(ts, mime); got != want {
			t.Fatalf("ResultFileName(%q) = %s, want %s", mime, got, want)
		}
	}
}
