package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"karlselfie/internal/domain"
	"karlselfie/internal/imagegen"
	"karlselfie/internal/storage"
)

// Request is one render submission.
type Request struct {
	Photo        []byte
	PhotoMIME    string
	PhotoName    string
	CustomPrompt string
	SceneIndex   string
	Locale       string
}

type SceneLookup interface {
	Lookup(selector string) (domain.Scene, error)
}

type KeyResolver interface {
	APIKey(ctx context.Context) (string, error)
}

type ReferenceLoader interface {
	Load() (storage.ReferenceAsset, error)
}

type Options struct {
	Scenes     SceneLookup
	Keys       KeyResolver
	References ReferenceLoader
	Editor     imagegen.Editor
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// Service turns a selfie and a scene into a composite image.
type Service struct {
	scenes     SceneLookup
	keys       KeyResolver
	references ReferenceLoader
	editor     imagegen.Editor
	timeout    time.Duration
	log        zerolog.Logger
}

func NewService(opts Options) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		scenes:     opts.Scenes,
		keys:       opts.Keys,
		references: opts.References,
		editor:     opts.Editor,
		timeout:    timeout,
		log:        opts.Logger,
	}
}

// Render validates the request and calls the editor exactly once. The
// checks run in order: photo, scene text, credential, reference asset.
func (s *Service) Render(ctx context.Context, req Request) (*domain.RenderResult, error) {
	if len(req.Photo) == 0 {
		return nil, domain.ErrMissingPhoto
	}
	sceneText, err := s.resolveScene(req)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.keys.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := s.references.Load()
	if err != nil {
		return nil, err
	}
	prompt, err := imagegen.BuildInstruction(sceneText)
	if err != nil {
		return nil, domain.ErrMissingScene
	}

	photoMIME := req.PhotoMIME
	if photoMIME == "" || photoMIME == "application/octet-stream" {
		photoMIME = "image/jpeg"
	}
	photoName := req.PhotoName
	if photoName == "" {
		photoName = "selfie.jpg"
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.editor.Edit(callCtx, imagegen.EditRequest{
		APIKey: apiKey,
		Prompt: prompt,
		Images: []imagegen.ImageInput{
			{Name: ref.Name, MIMEType: ref.MIME, Data: ref.Data},
			{Name: photoName, MIMEType: photoMIME, Data: req.Photo},
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
		}
		s.log.Warn().Err(err).Str("provider", s.editor.Name()).Dur("elapsed", elapsed).Msg("render failed")
		return nil, err
	}
	if out == nil || strings.TrimSpace(out.ImageBase64) == "" {
		return nil, domain.ErrEmptyGenerationResult
	}
	s.log.Info().
		Str("provider", s.editor.Name()).
		Str("reference", ref.Name).
		Int("selfie_bytes", len(req.Photo)).
		Dur("elapsed", elapsed).
		Msg("render completed")

	mime := out.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &domain.RenderResult{
		ImageBase64: out.ImageBase64,
		PromptUsed:  sceneText,
		FullPrompt:  prompt,
		MIMEType:    mime,
	}, nil
}

// resolveScene prefers free text over a catalog selector.
func (s *Service) resolveScene(req Request) (string, error) {
	if strings.TrimSpace(req.CustomPrompt) != "" {
		return req.CustomPrompt, nil
	}
	selector := strings.TrimSpace(req.SceneIndex)
	if selector == "" || s.scenes == nil {
		return "", domain.ErrMissingScene
	}
	scene, err := s.scenes.Lookup(selector)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: %w", domain.ErrMissingScene, err)
		}
		return "", err
	}
	if strings.TrimSpace(scene.FullPrompt) == "" {
		return "", domain.ErrMissingScene
	}
	return scene.FullPrompt, nil
}
