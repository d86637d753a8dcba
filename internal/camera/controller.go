package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handle is an acquired stream. Release stops its tracks exactly once.
type Handle struct {
	Stream Stream
	Facing FacingMode
	once   sync.Once
}

// Release stops every track of h. It is safe on nil and on released handles.
func Release(h *Handle) {
	if h == nil || h.Stream == nil {
		return
	}
	h.once.Do(func() {
		for _, t := range h.Stream.Tracks() {
			t.Stop()
		}
	})
}

type Options struct {
	Logger         zerolog.Logger
	PollAttempts   int
	PollInterval   time.Duration
	BindTimeout    time.Duration
	CaptureTimeout time.Duration
}

// Controller drives one camera backend. It keeps at most one live handle.
type Controller struct {
	devices MediaDevices
	log     zerolog.Logger

	pollAttempts   int
	pollInterval   time.Duration
	bindTimeout    time.Duration
	captureTimeout time.Duration

	mu      sync.Mutex
	current *Handle
}

func NewController(devices MediaDevices, opts Options) *Controller {
	c := &Controller{
		devices:        devices,
		log:            opts.Logger,
		pollAttempts:   opts.PollAttempts,
		pollInterval:   opts.PollInterval,
		bindTimeout:    opts.BindTimeout,
		captureTimeout: opts.CaptureTimeout,
	}
	if c.pollAttempts <= 0 {
		c.pollAttempts = 50
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 50 * time.Millisecond
	}
	if c.bindTimeout <= 0 {
		c.bindTimeout = 5 * time.Second
	}
	if c.captureTimeout <= 0 {
		c.captureTimeout = 10 * time.Second
	}
	return c
}

// CaptureTimeout is the readiness timeout used before capturing a frame.
func (c *Controller) CaptureTimeout() time.Duration { return c.captureTimeout }

// Acquire requests the configured facing mode at the ideal resolution and
// falls back once to any video device.
func (c *Controller) Acquire(ctx context.Context, cfg Config) (*Handle, error) {
	want := cfg.constraints()
	stream, err := c.devices.GetUserMedia(ctx, want)
	if err == nil {
		return &Handle{Stream: stream, Facing: want.FacingMode}, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrAcquire, err)
	}
	c.log.Warn().Err(err).Str("facing", string(want.FacingMode)).Msg("preferred camera unavailable, trying any device")

	stream, err2 := c.devices.GetUserMedia(ctx, Constraints{Any: true})
	if err2 != nil {
		return nil, fmt.Errorf("%w: %w", ErrAcquire, err2)
	}
	return &Handle{Stream: stream, Facing: want.FacingMode}, nil
}

// Release stops h and forgets it if it is the current handle.
func (c *Controller) Release(h *Handle) {
	c.mu.Lock()
	if c.current == h {
		c.current = nil
	}
	c.mu.Unlock()
	Release(h)
}

// ReleaseCurrent stops the handle opened by Start, if any.
func (c *Controller) ReleaseCurrent() {
	c.mu.Lock()
	h := c.current
	c.current = nil
	c.mu.Unlock()
	Release(h)
}

// Bind waits for the surface to exist, attaches the stream, waits for frame
// metadata and starts playback.
func (c *Controller) Bind(ctx context.Context, h *Handle, lookup SurfaceLookup) (Surface, error) {
	if h == nil || h.Stream == nil {
		return nil, fmt.Errorf("bind: %w", ErrNoFrame)
	}
	surface, err := c.waitSurface(ctx, lookup)
	if err != nil {
		return nil, err
	}
	surface.Attach(nil)
	surface.Attach(h.Stream)
	if err := AwaitReady(ctx, surface, c.bindTimeout); err != nil {
		return nil, err
	}
	if err := surface.Play(ctx); err != nil {
		return nil, fmt.Errorf("%w: play: %w", ErrSurfaceFailed, err)
	}
	return surface, nil
}

func (c *Controller) waitSurface(ctx context.Context, lookup SurfaceLookup) (Surface, error) {
	if lookup == nil {
		return nil, ErrSurfaceUnavailable
	}
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		if s, ok := lookup(); ok && s != nil {
			return s, nil
		}
		if attempt == c.pollAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return nil, ErrSurfaceUnavailable
}

const readyPoll = 20 * time.Millisecond

// AwaitReady returns once the surface reports non-zero dimensions.
func AwaitReady(ctx context.Context, s Surface, timeout time.Duration) error {
	if ready(s) {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()
	errs := s.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrTimedOut
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return fmt.Errorf("%w: %w", ErrSurfaceFailed, err)
		case <-ticker.C:
			if ready(s) {
				return nil
			}
		}
	}
}

func ready(s Surface) bool {
	w, h := s.Dimensions()
	return w > 0 && h > 0
}

// ListDevices returns the video input devices.
func (c *Controller) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	all, err := c.devices.EnumerateDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceInfo, 0, len(all))
	for _, d := range all {
		if d.Kind == KindVideoInput {
			out = append(out, d)
		}
	}
	return out, nil
}

// HasMultipleDevices reports whether a device switch makes sense.
func (c *Controller) HasMultipleDevices(ctx context.Context) bool {
	list, err := c.ListDevices(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("enumerate devices failed")
		return false
	}
	return len(list) > 1
}

// CheckPermission asks the backend for the camera permission state. A
// backend that cannot answer yields PermissionPrompt.
func (c *Controller) CheckPermission(ctx context.Context) PermissionState {
	state, err := c.devices.QueryPermission(ctx)
	if err != nil || state == "" {
		return PermissionPrompt
	}
	return state
}

// RequestPermission triggers the permission prompt by acquiring and
// immediately releasing a stream.
func (c *Controller) RequestPermission(ctx context.Context) (bool, error) {
	h, err := c.Acquire(ctx, Config{FacingMode: FacingFront})
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return false, nil
		}
		return false, err
	}
	Release(h)
	return true, nil
}

// Session is a started camera: a bound handle plus whether switching is
// offered.
type Session struct {
	Handle   *Handle
	Surface  Surface
	Multiple bool
}

// Start releases the previous handle before acquiring a new one, then binds
// it and counts devices.
func (c *Controller) Start(ctx context.Context, facing FacingMode, lookup SurfaceLookup) (*Session, error) {
	c.ReleaseCurrent()

	h, err := c.Acquire(ctx, Config{FacingMode: facing})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.current = h
	c.mu.Unlock()

	surface, err := c.Bind(ctx, h, lookup)
	if err != nil {
		c.Release(h)
		return nil, err
	}
	return &Session{Handle: h, Surface: surface, Multiple: c.HasMultipleDevices(ctx)}, nil
}
