// Package camera acquires live video devices, binds them to a display
// surface and extracts still frames.
//
// The package talks to hardware only through the MediaDevices, Stream, Track
// and Surface interfaces. StillDevices is a file-backed implementation used
// by the booth CLI and tests.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"

	"karlselfie/internal/domain"
)

var (
	ErrAcquire            = fmt.Errorf("camera acquisition failed: %w", domain.ErrDevice)
	ErrNoFrame            = fmt.Errorf("camera has no frame: %w", domain.ErrDevice)
	ErrSurfaceUnavailable = fmt.Errorf("camera surface unavailable: %w", domain.ErrDevice)
	ErrTimedOut           = fmt.Errorf("camera timed out: %w", domain.ErrDevice)
	ErrSurfaceFailed      = fmt.Errorf("camera surface error: %w", domain.ErrDevice)
	ErrPermissionDenied   = fmt.Errorf("camera permission denied: %w", domain.ErrDevice)
	ErrDeviceNotFound     = fmt.Errorf("no matching camera: %w", domain.ErrDevice)
	ErrUnsupported        = errors.New("camera: operation not supported by backend")
)

// FacingMode values match the browser's facingMode constraint.
type FacingMode string

const (
	FacingFront FacingMode = "user"
	FacingBack  FacingMode = "environment"
)

// ToggleFacing returns the opposite facing mode. Unknown values map to front.
func ToggleFacing(m FacingMode) FacingMode {
	if m == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// ParseFacing accepts "front"/"user" and "back"/"rear"/"environment".
func ParseFacing(s string) (FacingMode, error) {
	switch s {
	case "front", "user", "":
		return FacingFront, nil
	case "back", "rear", "environment":
		return FacingBack, nil
	}
	return "", fmt.Errorf("unknown facing mode %q: %w", s, domain.ErrInvalidInput)
}

const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Config describes one acquisition attempt.
type Config struct {
	FacingMode FacingMode
	Width      int
	Height     int
}

// Constraints is what the backend is asked for. Any requests whatever video
// device is available and ignores the other fields.
type Constraints struct {
	FacingMode  FacingMode
	IdealWidth  int
	IdealHeight int
	Any         bool
}

func (c Config) constraints() Constraints {
	w, h := c.Width, c.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	facing := c.FacingMode
	if facing == "" {
		facing = FacingFront
	}
	return Constraints{FacingMode: facing, IdealWidth: w, IdealHeight: h}
}

type Track interface {
	Kind() string
	Label() string
	Stop()
}

type Stream interface {
	Tracks() []Track
}

// DeviceInfo is one enumerated media device.
type DeviceInfo struct {
	ID     string
	Label  string
	Kind   string
	Facing FacingMode
}

const KindVideoInput = "videoinput"

type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// MediaDevices is the device backend. QueryPermission returns ErrUnsupported
// when the backend cannot answer.
type MediaDevices interface {
	GetUserMedia(ctx context.Context, c Constraints) (Stream, error)
	EnumerateDevices(ctx context.Context) ([]DeviceInfo, error)
	QueryPermission(ctx context.Context) (PermissionState, error)
}

// Surface is where a stream is displayed. Dimensions are zero until the
// stream has produced metadata. Errors may return nil when the surface never
// reports failures.
type Surface interface {
	Attach(s Stream)
	Dimensions() (width, height int)
	Errors() <-chan error
	Play(ctx context.Context) error
	Frame() (image.Image, error)
}

// SurfaceLookup returns the surface once it exists.
type SurfaceLookup func() (Surface, bool)
