// Package booth drives the photo booth: permission, live camera, scene
// selection, submission and the result or error screen.
package booth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"karlselfie/internal/camera"
	"karlselfie/internal/domain"
	"karlselfie/internal/hints"
	"karlselfie/internal/storage"
)

// Camera is the part of camera.Controller the flow needs.
type Camera interface {
	CheckPermission(ctx context.Context) camera.PermissionState
	RequestPermission(ctx context.Context) (bool, error)
	Start(ctx context.Context, facing camera.FacingMode, lookup camera.SurfaceLookup) (*camera.Session, error)
	ReleaseCurrent()
}

// Submitter sends a captured photo with its scene to the render endpoint.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (*domain.RenderResult, error)
}

// ResultWriter persists a downloaded render and returns where it went.
type ResultWriter interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Submission is one render request as the booth sends it.
type Submission struct {
	Photo        []byte
	PhotoMIME    string
	SceneIndex   string
	CustomPrompt string
	Locale       string
}

// CapturedPhoto is a still frame waiting for its scene.
type CapturedPhoto struct {
	Data []byte
	MIME string
}

// Selection is what the user picked on the scene screen. A non-blank custom
// prompt wins over the scene index.
type Selection struct {
	SceneIndex   string
	CustomPrompt string
}

func (s Selection) empty() bool {
	return strings.TrimSpace(s.SceneIndex) == "" && strings.TrimSpace(s.CustomPrompt) == ""
}

// View is a consistent snapshot of the flow for rendering a screen.
type View struct {
	State      State
	Facing     camera.FacingMode
	CanSwitch  bool
	HasPhoto   bool
	Selection  Selection
	Result     *domain.RenderResult
	Error      string
	Validation string
	Busy       bool
}

var messages = map[string]map[string]string{
	hints.LocaleDE: {
		"denied": "Kamerazugriff wurde verweigert. Bitte erlaube den Zugriff in den Browser-Einstellungen.",
		"prompt": "Bitte wähle eine Szene aus oder beschreibe deine eigene.",
	},
	hints.LocaleEN: {
		"denied": "Camera access was denied. Please allow access in your browser settings.",
		"prompt": "Please pick a scene or describe your own.",
	},
}

func message(locale, key string) string {
	if locale != hints.LocaleEN {
		locale = hints.LocaleDE
	}
	return messages[locale][key]
}

type Options struct {
	Camera    Camera
	Surface   camera.SurfaceLookup
	Submitter Submitter
	Results   ResultWriter
	Locale    string
	Facing    camera.FacingMode
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Flow is the booth state machine. State is guarded by mu, which is never
// held across camera or network calls. busy marks the single capture or
// submission allowed in flight.
type Flow struct {
	cam       Camera
	surface   camera.SurfaceLookup
	submitter Submitter
	results   ResultWriter
	locale    string
	log       zerolog.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      State
	facing     camera.FacingMode
	session    *camera.Session
	canSwitch  bool
	photo      *CapturedPhoto
	selection  Selection
	result     *domain.RenderResult
	errMsg     string
	validation string
	busy       bool
}

func NewFlow(opts Options) *Flow {
	f := &Flow{
		cam:       opts.Camera,
		surface:   opts.Surface,
		submitter: opts.Submitter,
		results:   opts.Results,
		locale:    opts.Locale,
		log:       opts.Logger,
		now:       opts.Now,
		state:     StatePermission,
		facing:    opts.Facing,
	}
	if f.locale == "" {
		f.locale = hints.LocaleDE
	}
	if f.facing == "" {
		f.facing = camera.FacingFront
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// View returns the current snapshot.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		State:      f.state,
		Facing:     f.facing,
		CanSwitch:  f.canSwitch,
		HasPhoto:   f.photo != nil,
		Selection:  f.selection,
		Result:     f.result,
		Error:      f.errMsg,
		Validation: f.validation,
		Busy:       f.busy,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Open grants immediately when the backend already reports a granted
// permission and otherwise stays on the permission screen.
func (f *Flow) Open(ctx context.Context) error {
	if f.cam.CheckPermission(ctx) != camera.PermissionGranted {
		return nil
	}
	return f.Grant(ctx)
}

// Grant asks for camera access and starts the preview.
func (f *Flow) Grant(ctx context.Context) error {
	f.mu.Lock()
	if err := checkEvent(f.state, EventGrant); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	f.busy = true
	f.mu.Unlock()

	ok, err := f.cam.RequestPermission(ctx)
	if err == nil && !ok {
		f.finish(EventGrant, StateError, func() { f.errMsg = message(f.locale, "denied") })
		return camera.ErrPermissionDenied
	}
	if err == nil {
		err = f.startCamera(ctx)
	}
	if err != nil {
		f.finish(EventGrant, StateError, func() { f.errMsg = f.describe(err) })
		return err
	}
	f.finish(EventGrant, StateCamera, nil)
	return nil
}

// SwitchDevice toggles the facing mode. On the camera screen the preview is
// restarted with the new mode; on the scene screen the device is only
// released and the next preview uses the new mode.
func (f *Flow) SwitchDevice(ctx context.Context) error {
	f.mu.Lock()
	from := f.state
	if err := checkTransition(from, EventSwitchDevice, from); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	f.facing = camera.ToggleFacing(f.facing)
	f.result = nil
	if from == StateSelectingScene {
		f.session = nil
		f.mu.Unlock()
		f.cam.ReleaseCurrent()
		return nil
	}
	f.busy = true
	f.mu.Unlock()

	if err := f.startCamera(ctx); err != nil {
		f.finish(EventFail, StateError, func() { f.errMsg = f.describe(err) })
		return err
	}
	f.finish(EventSwitchDevice, StateCamera, nil)
	return nil
}

// Capture grabs the current frame, releases the device and moves to scene
// selection. It is refused while busy and while the surface has no frame.
func (f *Flow) Capture(ctx context.Context) error {
	f.mu.Lock()
	if err := checkTransition(f.state, EventCapture, StateSelectingScene); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	var surface camera.Surface
	if f.session != nil {
		surface = f.session.Surface
	}
	if surface == nil {
		f.mu.Unlock()
		return ErrNotReady
	}
	if w, h := surface.Dimensions(); w <= 0 || h <= 0 {
		f.mu.Unlock()
		return ErrNotReady
	}
	mirror := f.facing == camera.FacingFront
	f.busy = true
	f.mu.Unlock()

	data, err := camera.CaptureFrame(surface, mirror)
	if err != nil {
		f.finish(EventFail, StateError, func() { f.errMsg = f.describe(err) })
		return err
	}
	f.cam.ReleaseCurrent()
	f.finish(EventCapture, StateSelectingScene, func() {
		f.session = nil
		f.photo = &CapturedPhoto{Data: data, MIME: camera.FrameMIME}
		f.selection = Selection{}
		f.validation = ""
	})
	f.log.Debug().Int("bytes", len(data)).Bool("mirror", mirror).Msg("frame captured")
	return nil
}

// SelectScene picks a catalog scene by id or "random".
func (f *Flow) SelectScene(selector string) error {
	return f.edit(func() { f.selection.SceneIndex = strings.TrimSpace(selector) })
}

// SetPrompt sets the free-text scene description.
func (f *Flow) SetPrompt(text string) error {
	return f.edit(func() { f.selection.CustomPrompt = text })
}

func (f *Flow) edit(apply func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSelectingScene {
		return fmt.Errorf("%w: selection is only editable in %s", ErrInvalidTransition, StateSelectingScene)
	}
	apply()
	f.validation = ""
	return nil
}

// Submit sends the held photo with the selection and waits for the render.
// An empty selection is refused with an inline validation message.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if err := checkTransition(f.state, EventSubmit, StateProcessing); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.busy {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.selection.empty() {
		f.validation = message(f.locale, "prompt")
		f.mu.Unlock()
		return domain.ErrMissingScene
	}
	if f.photo == nil {
		f.mu.Unlock()
		return domain.ErrMissingPhoto
	}
	sub := Submission{
		Photo:     f.photo.Data,
		PhotoMIME: f.photo.MIME,
		Locale:    f.locale,
	}
	if strings.TrimSpace(f.selection.CustomPrompt) != "" {
		sub.CustomPrompt = f.selection.CustomPrompt
	} else {
		sub.SceneIndex = f.selection.SceneIndex
	}
	f.state = StateProcessing
	f.validation = ""
	f.result = nil
	f.busy = true
	f.mu.Unlock()

	started := time.Now()
	res, err := f.submitter.Submit(ctx, sub)
	if err == nil && (res == nil || res.ImageBase64 == "") {
		err = domain.ErrEmptyGenerationResult
	}
	if err != nil {
		f.log.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("render failed")
		f.finish(EventFail, StateError, func() { f.errMsg = f.describe(err) })
		return err
	}
	f.log.Info().Dur("elapsed", time.Since(started)).Str("prompt", res.PromptUsed).Msg("render finished")
	f.finish(EventSucceed, StateResult, func() { f.result = res })
	return nil
}

// Retake drops the photo and result and restarts the preview.
func (f *Flow) Retake(ctx context.Context) error {
	f.mu.Lock()
	if err := checkTransition(f.state, EventRetake, StateCamera); err != nil {
		f.mu.Unlock()
		return err
	}
	f.photo = nil
	f.result = nil
	f.selection = Selection{}
	f.state = StateCamera
	f.busy = true
	f.mu.Unlock()

	if err := f.startCamera(ctx); err != nil {
		f.finish(EventFail, StateError, func() { f.errMsg = f.describe(err) })
		return err
	}
	f.finish(EventRetake, StateCamera, nil)
	return nil
}

// Download writes the result image and returns its path.
func (f *Flow) Download(ctx context.Context) (string, error) {
	f.mu.Lock()
	if err := checkTransition(f.state, EventDownload, StateResult); err != nil {
		f.mu.Unlock()
		return "", err
	}
	res := f.result
	f.mu.Unlock()

	if res == nil {
		return "", domain.ErrEmptyGenerationResult
	}
	if f.results == nil {
		return "", errors.New("booth: no result writer configured")
	}
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	path, err := f.results.Write(ctx, storage.ResultFileName(f.now(), res.MIMEType), data)
	if err != nil {
		return "", err
	}
	f.log.Info().Str("path", path).Msg("result saved")
	return path, nil
}

// Retry leaves the error screen: back to scene selection when a photo is
// held, else back to the live camera.
func (f *Flow) Retry(ctx context.Context) error {
	f.mu.Lock()
	if err := checkEvent(f.state, EventRetry); err != nil {
		f.mu.Unlock()
		return err
	}
	f.errMsg = ""
	if f.photo != nil {
		f.state = StateSelectingScene
		f.mu.Unlock()
		return nil
	}
	f.state = StateCamera
	f.busy = true
	f.mu.Unlock()

	if err := f.startCamera(ctx); err != nil {
		f.finish(EventFail, StateError, func() { f.errMsg = f.describe(err) })
		return err
	}
	f.finish(EventRetry, StateCamera, nil)
	return nil
}

// Close releases the camera.
func (f *Flow) Close() {
	f.mu.Lock()
	f.session = nil
	f.mu.Unlock()
	f.cam.ReleaseCurrent()
}

func (f *Flow) startCamera(ctx context.Context) error {
	f.mu.Lock()
	facing := f.facing
	f.mu.Unlock()

	sess, err := f.cam.Start(ctx, facing, f.surface)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.session = sess
	f.canSwitch = sess.Multiple
	f.mu.Unlock()
	return nil
}

// finish clears busy and moves to state to. The caller has checked that the
// move is allowed from the state it started in.
func (f *Flow) finish(ev Event, to State, apply func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if apply != nil {
		apply()
	}
	if f.state != to {
		f.log.Debug().Str("from", string(f.state)).Str("event", string(ev)).Str("to", string(to)).Msg("transition")
	}
	f.state = to
}

// describe turns err into the single message shown on the error screen.
func (f *Flow) describe(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Body.Hint != "" {
		return remote.Body.Hint
	}
	msg := err.Error()
	if remote != nil && remote.Body.Error != "" {
		msg = remote.Body.Error
	}
	return hints.Rewrite(msg, f.locale)
}
