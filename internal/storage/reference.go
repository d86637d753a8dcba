package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"karlselfie/internal/domain"
)

// ReferenceCandidates are tried in order before falling back to any image in
// the directory.
var ReferenceCandidates = []string{"karl.png", "karl.jpg", "karl1.jpg", "karl1.png", "karl2.jpg", "karl3.jpg"}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// ReferenceAsset is the character image sent alongside every selfie.
type ReferenceAsset struct {
	Name string
	Path string
	MIME string
	Data []byte
}

// ReferenceStore resolves and caches the reference asset for the process.
type ReferenceStore struct {
	dir      string
	cache    *cache.Cache
	group    singleflight.Group
	readFile func(string) ([]byte, error)
	readDir  func(string) ([]os.DirEntry, error)
}

func NewReferenceStore(dir string) *ReferenceStore {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "Referenz"
	}
	return &ReferenceStore{
		dir:      dir,
		cache:    cache.New(cache.NoExpiration, 0),
		readFile: os.ReadFile,
		readDir:  os.ReadDir,
	}
}

// Dir returns the directory searched for reference images.
func (s *ReferenceStore) Dir() string { return s.dir }

// Load returns the reference asset, reading it from disk only on first use.
// Failed lookups are not cached.
func (s *ReferenceStore) Load() (ReferenceAsset, error) {
	if v, ok := s.cache.Get(s.dir); ok {
		return v.(ReferenceAsset), nil
	}
	v, err, _ := s.group.Do(s.dir, func() (any, error) {
		if v, ok := s.cache.Get(s.dir); ok {
			return v, nil
		}
		asset, err := s.resolve()
		if err != nil {
			return nil, err
		}
		s.cache.Set(s.dir, asset, cache.NoExpiration)
		return asset, nil
	})
	if err != nil {
		return ReferenceAsset{}, err
	}
	asset, ok := v.(ReferenceAsset)
	if !ok {
		return ReferenceAsset{}, fmt.Errorf("unexpected return type from singleflight: %T", v)
	}
	return asset, nil
}

// Invalidate drops the cached asset so the next Load reads the directory again.
func (s *ReferenceStore) Invalidate() {
	s.cache.Delete(s.dir)
}

func (s *ReferenceStore) resolve() (ReferenceAsset, error) {
	for _, name := range ReferenceCandidates {
		path := filepath.Join(s.dir, name)
		data, err := s.readFile(path)
		if err == nil {
			return ReferenceAsset{Name: name, Path: path, MIME: MIMEFromExt(name), Data: data}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return ReferenceAsset{}, fmt.Errorf("read reference %s: %w", path, err)
		}
	}

	entries, err := s.readDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ReferenceAsset{}, fmt.Errorf("%w: %s", domain.ErrReferenceAssetMissing, s.dir)
		}
		return ReferenceAsset{}, fmt.Errorf("list reference dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return ReferenceAsset{}, fmt.Errorf("%w: %s", domain.ErrReferenceAssetMissing, s.dir)
	}
	sort.Strings(names)
	path := filepath.Join(s.dir, names[0])
	data, err := s.readFile(path)
	if err != nil {
		return ReferenceAsset{}, fmt.Errorf("read reference %s: %w", path, err)
	}
	return ReferenceAsset{Name: names[0], Path: path, MIME: MIMEFromExt(names[0]), Data: data}, nil
}

// MIMEFromExt maps an image file name to its content type. Unknown
// extensions are treated as JPEG.
func MIMEFromExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
