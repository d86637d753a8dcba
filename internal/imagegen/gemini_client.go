package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"karlselfie/internal/domain"
)

const (
	ProviderGemini = "gemini"

	DefaultGeminiModel  = "gemini-2.5-flash-image"
	DefaultGeminiAspect = "2:3"
)

type GeminiOptions struct {
	BaseURL     string
	Model       string
	AspectRatio string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// GeminiClient edits images through the Gemini API. A genai client is built
// per call because the API key arrives with the request.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	aspect     string
}

func NewGeminiClient(opts GeminiOptions) *GeminiClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &GeminiClient{
		httpClient: client,
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		model:      firstNonEmpty(opts.Model, DefaultGeminiModel),
		aspect:     firstNonEmpty(opts.AspectRatio, DefaultGeminiAspect),
	}
}

func (c *GeminiClient) Name() string { return ProviderGemini }

func (c *GeminiClient) Edit(ctx context.Context, in EditRequest) (*EditResult, error) {
	if c == nil {
		return nil, errors.New("gemini client not configured")
	}
	token := strings.TrimSpace(in.APIKey)
	if token == "" {
		return nil, domain.ErrMissingCredential
	}
	if len(in.Images) == 0 {
		return nil, fmt.Errorf("gemini: images required: %w", domain.ErrInvalidInput)
	}

	cfg := &genai.ClientConfig{
		APIKey:     token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, buildContents(in), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: c.aspect},
	})
	if err != nil {
		return nil, mapGeminiError(ctx, err)
	}
	return extractImage(resp)
}

// buildContents puts the images first, in request order, followed by the prompt.
func buildContents(in EditRequest) []*genai.Content {
	parts := make([]*genai.Part, 0, len(in.Images)+1)
	for _, img := range in.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: firstNonEmpty(img.MIMEType, "image/jpeg"),
			Data:     img.Data,
		}})
	}
	parts = append(parts, genai.NewPartFromText(in.Prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func extractImage(resp *genai.GenerateContentResponse) (*EditResult, error) {
	if resp == nil {
		return nil, domain.ErrEmptyGenerationResult
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		msg := firstNonEmpty(fb.BlockReasonMessage, "Request rejected by safety system: "+string(fb.BlockReason))
		return nil, &domain.UpstreamError{Provider: ProviderGemini, Code: string(fb.BlockReason), Message: msg, Rejected: true}
	}
	if len(resp.Candidates) == 0 {
		return nil, domain.ErrEmptyGenerationResult
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return &EditResult{
				ImageBase64: base64.StdEncoding.EncodeToString(part.InlineData.Data),
				MIMEType:    firstNonEmpty(part.InlineData.MIMEType, "image/png"),
			}, nil
		}
	}
	if cand.FinishReason == genai.FinishReasonSafety {
		return nil, &domain.UpstreamError{Provider: ProviderGemini, Code: string(cand.FinishReason), Message: "Image rejected by safety system", Rejected: true}
	}
	return nil, domain.ErrEmptyGenerationResult
}

func mapGeminiError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, ctx.Err())
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErrorToUpstream(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrorToUpstream(*apiErrPtr)
	}
	return fmt.Errorf("gemini: %w: %w", domain.ErrUpstream, err)
}

func apiErrorToUpstream(e genai.APIError) error {
	return &domain.UpstreamError{
		Provider: ProviderGemini,
		Status:   e.Code,
		Code:     e.Status,
		Message:  firstNonEmpty(e.Message, fmt.Sprintf("gemini: http %d", e.Code)),
		Rejected: isRejection(e.Message),
	}
}
