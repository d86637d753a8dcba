package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	JPEGQuality = 92
	FrameMIME   = "image/jpeg"
)

// CaptureFrame renders the current frame at the surface's native size,
// flipped horizontally when mirror is set, and encodes it as JPEG.
// Zero dimensions fail with ErrNoFrame before the frame is read.
func CaptureFrame(s Surface, mirror bool) ([]byte, error) {
	if s == nil {
		return nil, ErrNoFrame
	}
	w, h := s.Dimensions()
	if w <= 0 || h <= 0 {
		return nil, ErrNoFrame
	}
	src, err := s.Frame()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrNoFrame
	}

	dst := Rasterize(src, w, h, mirror)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Rasterize draws src into a w×h RGBA image, scaling when the sizes differ.
func Rasterize(src image.Image, w, h int, mirror bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	sx := float64(w) / float64(b.Dx())
	sy := float64(h) / float64(b.Dy())

	m := f64.Aff3{
		sx, 0, -float64(b.Min.X) * sx,
		0, sy, -float64(b.Min.Y) * sy,
	}
	if mirror {
		m[0] = -sx
		m[2] = float64(w) + float64(b.Min.X)*sx
	}

	var interp draw.Interpolator = draw.NearestNeighbor
	if b.Dx() != w || b.Dy() != h {
		interp = draw.ApproxBiLinear
	}
	interp.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}
