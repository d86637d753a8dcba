package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karlselfie/internal/domain"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("img:"+n), 0o600))
	}
}

func TestReferenceCandidateOrder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "karl3.jpg", "karl1.jpg", "aaa.png")

	asset, err := NewReferenceStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "karl1.jpg", asset.Name)
	assert.Equal(t, "image/jpeg", asset.MIME)
	assert.Equal(t, []byte("img:karl1.jpg"), asset.Data)
}

func TestReferenceFallbackIsLexical(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "zeta.webp", "notes.txt", "beta.png", "Alpha.jpeg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "aaa.jpg"), 0o755))

	asset, err := NewReferenceStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "Alpha.jpeg", asset.Name)
	assert.Equal(t, "image/jpeg", asset.MIME)
}

func TestReferenceMissing(t *testing.T) {
	_, err := NewReferenceStore(filepath.Join(t.TempDir(), "missing")).Load()
	assert.True(t, errors.Is(err, domain.ErrReferenceAssetMissing))

	dir := t.TempDir()
	writeFiles(t, dir, "readme.md")
	_, err = NewReferenceStore(dir).Load()
	assert.True(t, errors.Is(err, domain.ErrReferenceAssetMissing))
}

func TestReferenceCachedAndSingleLoad(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "karl.png")

	store := NewReferenceStore(dir)
	var reads atomic.Int32
	store.readFile = func(p string) ([]byte, error) {
		reads.Add(1)
		return os.ReadFile(p)
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset, err := store.Load()
			assert.NoError(t, err)
			assert.Equal(t, "image/png", asset.MIME)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), reads.Load())

	store.Invalidate()
	_, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, int32(2), reads.Load())
}

func TestMIMEFromExt(t *testing.T) {
	cases := map[string]string{
		"a.png":  "image/png",
		"a.PNG":  "image/png",
		"a.webp": "image/webp",
		"a.jpg":  "image/jpeg",
		"a.jpeg": "image/jpeg",
		"a.gif":  "image/jpeg",
		"a":      "image/jpeg",
	}
	for name, want := range cases {
		assert.Equal(t, want, MIMEFromExt(name), name)
	}
}
