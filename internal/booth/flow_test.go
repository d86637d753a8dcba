package booth

import (
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karlselfie/internal/camera"
	"karlselfie/internal/domain"
	"karlselfie/internal/hints"
	"karlselfie/internal/storage"
)

type testSurface struct {
	w, h  int
	frame image.Image
	block chan struct{}
}

func (s *testSurface) Attach(camera.Stream)       {}
func (s *testSurface) Dimensions() (int, int)     { return s.w, s.h }
func (s *testSurface) Errors() <-chan error       { return nil }
func (s *testSurface) Play(context.Context) error { return nil }
func (s *testSurface) Frame() (image.Image, error) {
	if s.block != nil {
		<-s.block
	}
	return s.frame, nil
}

type fakeCamera struct {
	mu       sync.Mutex
	perm     camera.PermissionState
	denied   bool
	startErr error
	surface  *testSurface
	starts   []camera.FacingMode
	releases int
}

func (c *fakeCamera) CheckPermission(context.Context) camera.PermissionState { return c.perm }

func (c *fakeCamera) RequestPermission(context.Context) (bool, error) { return !c.denied, nil }

func (c *fakeCamera) Start(_ context.Context, facing camera.FacingMode, _ camera.SurfaceLookup) (*camera.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts = append(c.starts, facing)
	if c.startErr != nil {
		return nil, c.startErr
	}
	return &camera.Session{Handle: &camera.Handle{Facing: facing}, Surface: c.surface, Multiple: true}, nil
}

func (c *fakeCamera) ReleaseCurrent() {
	c.mu.Lock()
	c.releases++
	c.mu.Unlock()
}

type submitFunc func(ctx context.Context, s Submission) (*domain.RenderResult, error)

func (f submitFunc) Submit(ctx context.Context, s Submission) (*domain.RenderResult, error) {
	return f(ctx, s)
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	return img
}

func readyCamera() *fakeCamera {
	return &fakeCamera{perm: camera.PermissionGranted, surface: &testSurface{w: 32, h: 24, frame: solid(32, 24)}}
}

var resultPNG = []byte("\x89PNG\r\n\x1a\nfake")

func okSubmitter(got *Submission) Submitter {
	return submitFunc(func(_ context.Context, s Submission) (*domain.RenderResult, error) {
		if got != nil {
			*got = s
		}
		return &domain.RenderResult{
			ImageBase64: base64.StdEncoding.EncodeToString(resultPNG),
			PromptUsed:  "scene",
			FullPrompt:  "full",
		}, nil
	})
}

func newFlow(t *testing.T, cam Camera, sub Submitter) *Flow {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewFlow(Options{
		Camera:    cam,
		Submitter: sub,
		Results:   files,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.UnixMilli(1700000000123) },
	})
}

func TestTransitionTable(t *testing.T) {
	allowed := []struct {
		from State
		ev   Event
		to   State
	}{
		{StatePermission, EventGrant, StateCamera},
		{StatePermission, EventGrant, StateError},
		{StateCamera, EventSwitchDevice, StateCamera},
		{StateCamera, EventCapture, StateSelectingScene},
		{StateCamera, EventFail, StateError},
		{StateSelectingScene, EventSubmit, StateProcessing},
		{StateSelectingScene, EventSwitchDevice, StateSelectingScene},
		{StateProcessing, EventSucceed, StateResult},
		{StateProcessing, EventFail, StateError},
		{StateResult, EventRetake, StateCamera},
		{StateResult, EventDownload, StateResult},
		{StateError, EventRetry, StateSelectingScene},
		{StateError, EventRetry, StateCamera},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.ev, tc.to), "%s --%s--> %s", tc.from, tc.ev, tc.to)
	}

	rejected := []struct {
		from State
		ev   Event
		to   State
	}{
		{StatePermission, EventCapture, StateSelectingScene},
		{StateCamera, EventSubmit, StateProcessing},
		{StateCamera, EventCapture, StateProcessing},
		{StateProcessing, EventRetake, StateCamera},
		{StateResult, EventSubmit, StateProcessing},
		{StateError, EventRetry, StateResult},
		{StateError, EventGrant, StateCamera},
	}
	for _, tc := range rejected {
		assert.False(t, CanTransition(tc.from, tc.ev, tc.to), "%s --%s--> %s", tc.from, tc.ev, tc.to)
		assert.ErrorIs(t, checkTransition(tc.from, tc.ev, tc.to), ErrInvalidTransition)
	}
}

func TestFlowHappyPath(t *testing.T) {
	ctx := context.Background()
	cam := readyCamera()
	var sent Submission
	f := newFlow(t, cam, okSubmitter(&sent))

	require.NoError(t, f.Open(ctx))
	v := f.View()
	assert.Equal(t, StateCamera, v.State)
	assert.True(t, v.CanSwitch)
	assert.Equal(t, []camera.FacingMode{camera.FacingFront}, cam.starts)

	require.NoError(t, f.Capture(ctx))
	v = f.View()
	assert.Equal(t, StateSelectingScene, v.State)
	assert.True(t, v.HasPhoto)
	assert.Equal(t, 1, cam.releases, "capture releases the device")

	err := f.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingScene)
	v = f.View()
	assert.Equal(t, StateSelectingScene, v.State)
	assert.NotEmpty(t, v.Validation)

	require.NoError(t, f.SelectScene(" 3 "))
	assert.Empty(t, f.View().Validation)
	require.NoError(t, f.Submit(ctx))
	v = f.View()
	assert.Equal(t, StateResult, v.State)
	require.NotNil(t, v.Result)
	assert.Equal(t, "3", sent.SceneIndex)
	assert.Empty(t, sent.CustomPrompt)
	assert.Equal(t, camera.FrameMIME, sent.PhotoMIME)
	assert.Equal(t, hints.LocaleDE, sent.Locale)
	assert.NotEmpty(t, sent.Photo)

	path, err := f.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, "karl-selfie-1700000000123.png", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, resultPNG, data)
	assert.Equal(t, StateResult, f.State())

	require.NoError(t, f.Retake(ctx))
	v = f.View()
	assert.Equal(t, StateCamera, v.State)
	assert.False(t, v.HasPhoto)
	assert.Nil(t, v.Result)
	assert.Len(t, cam.starts, 2)
}

func TestFlowDownloadUsesResultType(t *testing.T) {
	ctx := context.Background()
	jpegBytes := []byte{0xff, 0xd8, 0xff, 0xe0}
	f := newFlow(t, readyCamera(), submitFunc(func(context.Context, Submission) (*domain.RenderResult, error) {
		return &domain.RenderResult{
			ImageBase64: base64.StdEncoding.EncodeToString(jpegBytes),
			MIMEType:    "image/jpeg",
		}, nil
	}))
	require.NoError(t, f.Open(ctx))
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SelectScene("5"))
	require.NoError(t, f.Submit(ctx))

	path, err := f.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, "karl-selfie-1700000000123.jpg", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, data)
}

func TestFlowCustomPromptWins(t *testing.T) {
	ctx := context.Background()
	var sent Submission
	f := newFlow(t, readyCamera(), okSubmitter(&sent))
	require.NoError(t, f.Open(ctx))
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SelectScene("random"))
	require.NoError(t, f.SetPrompt("Karl auf dem Mond"))
	require.NoError(t, f.Submit(ctx))
	assert.Equal(t, "Karl auf dem Mond", sent.CustomPrompt)
	assert.Empty(t, sent.SceneIndex)
}

func TestFlowBlankPromptRefused(t *testing.T) {
	ctx := context.Background()
	calls := 0
	f := newFlow(t, readyCamera(), submitFunc(func(context.Context, Submission) (*domain.RenderResult, error) {
		calls++
		return nil, nil
	}))
	require.NoError(t, f.Open(ctx))
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SetPrompt("   "))
	assert.ErrorIs(t, f.Submit(ctx), domain.ErrMissingScene)
	assert.Zero(t, calls)
	assert.Equal(t, StateSelectingScene, f.State())
}

func TestFlowOpenWithoutPermission(t *testing.T) {
	cam := readyCamera()
	cam.perm = camera.PermissionPrompt
	f := newFlow(t, cam, okSubmitter(nil))
	require.NoError(t, f.Open(context.Background()))
	assert.Equal(t, StatePermission, f.State())
	assert.Empty(t, cam.starts)

	require.NoError(t, f.Grant(context.Background()))
	assert.Equal(t, StateCamera, f.State())
}

func TestFlowGrantDenied(t *testing.T) {
	ctx := context.Background()
	cam := readyCamera()
	cam.denied = true
	f := newFlow(t, cam, okSubmitter(nil))

	err := f.Grant(ctx)
	assert.ErrorIs(t, err, camera.ErrPermissionDenied)
	v := f.View()
	assert.Equal(t, StateError, v.State)
	assert.Contains(t, v.Error, "Kamerazugriff")

	require.NoError(t, f.Retry(ctx))
	assert.Equal(t, StateCamera, f.State(), "no photo held, retry returns to the camera")
}

func TestFlowAcquisitionFailure(t *testing.T) {
	cam := readyCamera()
	cam.startErr = camera.ErrAcquire
	f := newFlow(t, cam, okSubmitter(nil))
	err := f.Open(context.Background())
	assert.ErrorIs(t, err, camera.ErrAcquire)
	assert.Equal(t, StateError, f.State())
	assert.NotEmpty(t, f.View().Error)
}

func TestFlowCaptureNotReady(t *testing.T) {
	cam := readyCamera()
	cam.surface.w, cam.surface.h = 0, 0
	f := newFlow(t, cam, okSubmitter(nil))
	require.NoError(t, f.Open(context.Background()))

	assert.ErrorIs(t, f.Capture(context.Background()), ErrNotReady)
	assert.Equal(t, StateCamera, f.State())
	assert.False(t, f.View().HasPhoto)
}

func TestFlowCaptureBusy(t *testing.T) {
	ctx := context.Background()
	cam := readyCamera()
	cam.surface.block = make(chan struct{})
	f := newFlow(t, cam, okSubmitter(nil))
	require.NoError(t, f.Open(ctx))

	done := make(chan error, 1)
	go func() { done <- f.Capture(ctx) }()
	require.Eventually(t, func() bool { return f.View().Busy }, time.Second, time.Millisecond)

	assert.ErrorIs(t, f.Capture(ctx), ErrBusy)
	assert.ErrorIs(t, f.SwitchDevice(ctx), ErrBusy)

	close(cam.surface.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateSelectingScene, f.State())
}

func TestFlowSubmitInFlight(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	f := newFlow(t, readyCamera(), submitFunc(func(context.Context, Submission) (*domain.RenderResult, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return &domain.RenderResult{ImageBase64: "aGk="}, nil
	}))
	require.NoError(t, f.Open(ctx))
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SelectScene("1"))

	done := make(chan error, 1)
	go func() { done <- f.Submit(ctx) }()
	require.Eventually(t, func() bool { return f.State() == StateProcessing }, time.Second, time.Millisecond)

	assert.Error(t, f.Submit(ctx))
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
	assert.Equal(t, StateResult, f.State())
}

func TestFlowSubmitFailureRewritesMessage(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, readyCamera(), submitFunc(func(context.Context, Submission) (*domain.RenderResult, error) {
		return nil, &RemoteError{Status: 500, Body: domain.RenderError{Error: "Your request was rejected by the safety system."}}
	}))
	require.NoError(t, f.Open(ctx))
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SelectScene("2"))

	err := f.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	v := f.View()
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, hints.For("safety", hints.LocaleDE), v.Error)

	require.NoError(t, f.Retry(ctx))
	v = f.View()
	assert.Equal(t, StateSelectingScene, v.State, "photo held, retry returns to scene selection")
	assert.True(t, v.HasPhoto)
}

func TestFlowServerHintPreferred(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, readyCamera(), submitFunc(func(context.Context, Submission) (*domain.RenderResult, error) {
		return nil, &RemoteError{Status: 500, Body: domain.RenderError{Error: "x", Hint: "server hint"}}
	}))
	require.NoError(t, f.Open(ctx))
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SetPrompt("egal"))
	_ = f.Submit(ctx)
	assert.Equal(t, "server hint", f.View().Error)
}

func TestFlowSwitchDevice(t *testing.T) {
	ctx := context.Background()
	cam := readyCamera()
	f := newFlow(t, cam, okSubmitter(nil))
	require.NoError(t, f.Open(ctx))

	require.NoError(t, f.SwitchDevice(ctx))
	assert.Equal(t, StateCamera, f.State())
	assert.Equal(t, []camera.FacingMode{camera.FacingFront, camera.FacingBack}, cam.starts)
	assert.Equal(t, camera.FacingBack, f.View().Facing)

	require.NoError(t, f.Capture(ctx))
	releases := cam.releases
	require.NoError(t, f.SwitchDevice(ctx))
	assert.Equal(t, StateSelectingScene, f.State())
	assert.Equal(t, releases+1, cam.releases)
	assert.Len(t, cam.starts, 2, "no re-acquire on the scene screen")
	assert.Equal(t, camera.FacingFront, f.View().Facing)
	assert.True(t, f.View().HasPhoto)
}

func TestFlowRejectsOutOfOrderEvents(t *testing.T) {
	ctx := context.Background()
	f := newFlow(t, readyCamera(), okSubmitter(nil))

	assert.ErrorIs(t, f.Capture(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, f.Submit(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, f.Retake(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, f.Retry(ctx), ErrInvalidTransition)
	assert.ErrorIs(t, f.SelectScene("1"), ErrInvalidTransition)
	_, err := f.Download(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatePermission, f.State())
}

func TestFlowWithStillCamera(t *testing.T) {
	dir := t.TempDir()
	fh, err := os.Create(filepath.Join(dir, "front.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, solid(48, 32)))
	require.NoError(t, fh.Close())

	devices, err := camera.NewStillDevices(dir)
	require.NoError(t, err)
	ctrl := camera.NewController(devices, camera.Options{Logger: zerolog.Nop()})
	surface := &camera.StillSurface{}

	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	var sent Submission
	f := NewFlow(Options{
		Camera:    ctrl,
		Surface:   surface.Lookup(),
		Submitter: okSubmitter(&sent),
		Results:   files,
		Locale:    hints.LocaleEN,
		Logger:    zerolog.Nop(),
	})
	defer f.Close()

	ctx := context.Background()
	require.NoError(t, f.Open(ctx))
	assert.False(t, f.View().CanSwitch)
	require.NoError(t, f.Capture(ctx))
	require.NoError(t, f.SelectScene("random"))
	require.NoError(t, f.Submit(ctx))
	assert.Equal(t, StateResult, f.State())
	assert.Equal(t, hints.LocaleEN, sent.Locale)
	assert.Equal(t, []byte{0xff, 0xd8}, sent.Photo[:2], "jpeg magic")
}
