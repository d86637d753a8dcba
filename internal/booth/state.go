package booth

import (
	"errors"
	"fmt"
	"slices"
)

// State is one screen of the capture flow.
type State string

const (
	StatePermission     State = "permission"
	StateCamera         State = "camera"
	StateSelectingScene State = "selecting_scene"
	StateProcessing     State = "processing"
	StateResult         State = "result"
	StateError          State = "error"
)

type Event string

const (
	EventGrant        Event = "grant"
	EventSwitchDevice Event = "switch_device"
	EventCapture      Event = "capture"
	EventSubmit       Event = "submit"
	EventSucceed      Event = "succeed"
	EventFail         Event = "fail"
	EventRetake       Event = "retake"
	EventDownload     Event = "download"
	EventRetry        Event = "retry"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrBusy              = errors.New("capture or submission already in flight")
	ErrNotReady          = errors.New("camera is not ready yet")
)

// transitions lists every allowed move. An event with several targets picks
// one at runtime (grant may end in Error, retry depends on the held photo).
var transitions = map[State]map[Event][]State{
	StatePermission: {
		EventGrant: {StateCamera, StateError},
	},
	StateCamera: {
		EventSwitchDevice: {StateCamera},
		EventCapture:      {StateSelectingScene},
		EventFail:         {StateError},
	},
	StateSelectingScene: {
		EventSubmit:       {StateProcessing},
		EventSwitchDevice: {StateSelectingScene},
	},
	StateProcessing: {
		EventSucceed: {StateResult},
		EventFail:    {StateError},
	},
	StateResult: {
		EventRetake:   {StateCamera},
		EventDownload: {StateResult},
	},
	StateError: {
		EventRetry: {StateSelectingScene, StateCamera},
	},
}

// CanTransition reports whether ev moves from to to.
func CanTransition(from State, ev Event, to State) bool {
	return slices.Contains(transitions[from][ev], to)
}

// Accepts reports whether ev is handled at all in from.
func Accepts(from State, ev Event) bool {
	return len(transitions[from][ev]) > 0
}

func checkTransition(from State, ev Event, to State) error {
	if !CanTransition(from, ev, to) {
		return fmt.Errorf("%w: %s --%s--> %s", ErrInvalidTransition, from, ev, to)
	}
	return nil
}

func checkEvent(from State, ev Event) error {
	if !Accepts(from, ev) {
		return fmt.Errorf("%w: %s does not accept %s", ErrInvalidTransition, from, ev)
	}
	return nil
}
