package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

var stillExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// StillDevices is a virtual camera backend: every image file in a directory
// is one video input device that always shows that image. File names
// starting with front/user face the user, back/rear/environment face away.
type StillDevices struct {
	devices    []DeviceInfo
	paths      map[string]string
	permission PermissionState
}

// NewStillDevices scans dir for images.
func NewStillDevices(dir string) (*StillDevices, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("camera: read device dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !stillExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	d := &StillDevices{paths: make(map[string]string, len(names)), permission: PermissionGranted}
	for _, name := range names {
		d.devices = append(d.devices, DeviceInfo{
			ID:     name,
			Label:  strings.TrimSuffix(name, filepath.Ext(name)),
			Kind:   KindVideoInput,
			Facing: facingFromName(name),
		})
		d.paths[name] = filepath.Join(dir, name)
	}
	return d, nil
}

func facingFromName(name string) FacingMode {
	lower := strings.ToLower(name)
	for _, p := range []string{"back", "rear", "environment"} {
		if strings.HasPrefix(lower, p) {
			return FacingBack
		}
	}
	if strings.HasPrefix(lower, "front") || strings.HasPrefix(lower, "user") {
		return FacingFront
	}
	return ""
}

// SetPermission changes what the backend reports and enforces.
func (d *StillDevices) SetPermission(p PermissionState) { d.permission = p }

func (d *StillDevices) QueryPermission(ctx context.Context) (PermissionState, error) {
	return d.permission, ctx.Err()
}

func (d *StillDevices) EnumerateDevices(ctx context.Context) ([]DeviceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]DeviceInfo, len(d.devices))
	copy(out, d.devices)
	return out, nil
}

func (d *StillDevices) GetUserMedia(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.permission == PermissionDenied {
		return nil, ErrPermissionDenied
	}
	for _, dev := range d.devices {
		if c.Any || dev.Facing == c.FacingMode {
			img, err := decodeStill(d.paths[dev.ID])
			if err != nil {
				return nil, err
			}
			return &stillStream{track: &stillTrack{label: dev.Label}, frame: img}, nil
		}
	}
	return nil, fmt.Errorf("%w: facing %s", ErrDeviceNotFound, c.FacingMode)
}

func decodeStill(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("camera: open still: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("camera: decode still %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

type stillTrack struct {
	label   string
	mu      sync.Mutex
	stopped bool
}

func (t *stillTrack) Kind() string  { return "video" }
func (t *stillTrack) Label() string { return t.label }

func (t *stillTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *stillTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type stillStream struct {
	track *stillTrack
	frame image.Image
}

func (s *stillStream) Tracks() []Track { return []Track{s.track} }

// StillSurface displays a stream from StillDevices. It reports the frame's
// size as soon as a live stream is attached.
type StillSurface struct {
	mu     sync.Mutex
	stream *stillStream
}

func (s *StillSurface) Attach(st Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, _ := st.(*stillStream)
	s.stream = ss
}

func (s *StillSurface) live() *stillStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil || s.stream.track.Stopped() {
		return nil
	}
	return s.stream
}

func (s *StillSurface) Dimensions() (int, int) {
	st := s.live()
	if st == nil {
		return 0, 0
	}
	b := st.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (s *StillSurface) Errors() <-chan error { return nil }

func (s *StillSurface) Play(ctx context.Context) error { return ctx.Err() }

func (s *StillSurface) Frame() (image.Image, error) {
	st := s.live()
	if st == nil {
		return nil, ErrNoFrame
	}
	return st.frame, nil
}

// Lookup returns a SurfaceLookup that always finds s.
func (s *StillSurface) Lookup() SurfaceLookup {
	return func() (Surface, bool) { return s, true }
}
