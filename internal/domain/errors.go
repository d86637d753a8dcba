package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	ErrMissingPhoto = errors.New("No selfie image provided")
	ErrMissingScene = errors.New("No scene description provided")

	ErrMissingCredential     = errors.New("No API key found. Set the API key environment variable or create key.txt")
	ErrReferenceAssetMissing = errors.New("No Karl reference image found in reference folder")

	ErrDevice = errors.New("camera device failure")

	ErrUpstream              = errors.New("upstream failure")
	ErrUpstreamRejected      = errors.New("upstream rejected request")
	ErrUpstreamTimeout       = errors.New("image generation timed out")
	ErrEmptyGenerationResult = errors.New("No image data in generation response")
)

// Kind groups errors by who can fix them.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindDevice            Kind = "device"
	KindUpstreamRejection Kind = "upstream_rejection"
	KindUpstream          Kind = "upstream"
	KindConfiguration     Kind = "configuration"
	KindInternal          Kind = "internal"
)

// KindOf classifies err against the sentinel errors above.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingPhoto), errors.Is(err, ErrMissingScene), errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrDevice):
		return KindDevice
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrReferenceAssetMissing):
		return KindConfiguration
	case errors.Is(err, ErrUpstreamRejected):
		return KindUpstreamRejection
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrUpstreamTimeout), errors.Is(err, ErrEmptyGenerationResult),
		errors.Is(err, context.DeadlineExceeded):
		return KindUpstream
	default:
		return KindInternal
	}
}

// UpstreamError carries the provider's status and message so that callers can
// surface the original wording.
type UpstreamError struct {
	Provider string
	Status   int
	Code     string
	Message  string
	Rejected bool
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Provider + ": upstream error"
}

func (e *UpstreamError) Unwrap() error {
	if e.Rejected {
		return ErrUpstreamRejected
	}
	return ErrUpstream
}
