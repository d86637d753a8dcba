package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"karlselfie/internal/domain"
)

const (
	ProviderOpenAI = "openai"

	DefaultOpenAIModel   = "gpt-image-1"
	DefaultOpenAISize    = "1024x1536"
	DefaultOpenAIQuality = "high"
)

type OpenAIOptions struct {
	BaseURL      string
	Model        string
	Size         string
	Quality      string
	Organization string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// OpenAIClient calls the Images Edit endpoint with multipart uploads.
type OpenAIClient struct {
	httpClient   *http.Client
	baseURL      string
	model        string
	size         string
	quality      string
	organization string
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{
		httpClient:   client,
		baseURL:      base,
		model:        firstNonEmpty(opts.Model, DefaultOpenAIModel),
		size:         firstNonEmpty(opts.Size, DefaultOpenAISize),
		quality:      firstNonEmpty(opts.Quality, DefaultOpenAIQuality),
		organization: strings.TrimSpace(opts.Organization),
	}
}

func (c *OpenAIClient) Name() string { return ProviderOpenAI }

type openAIEditResp struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *OpenAIClient) Edit(ctx context.Context, in EditRequest) (*EditResult, error) {
	if c == nil {
		return nil, errors.New("openai client not configured")
	}
	token := strings.TrimSpace(in.APIKey)
	if token == "" {
		return nil, domain.ErrMissingCredential
	}
	if len(in.Images) == 0 {
		return nil, fmt.Errorf("openai: images required: %w", domain.ErrInvalidInput)
	}

	body, contentType, err := c.encodeForm(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("openai: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	var out openAIEditResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &domain.UpstreamError{Provider: ProviderOpenAI, Status: resp.StatusCode, Message: fmt.Sprintf("openai: http %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("openai: decode response: %w: %w", domain.ErrUpstream, err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return nil, &domain.UpstreamError{
			Provider: ProviderOpenAI,
			Status:   resp.StatusCode,
			Code:     out.Error.Code,
			Message:  out.Error.Message,
			Rejected: isRejection(out.Error.Message) || isRejection(out.Error.Code),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &domain.UpstreamError{Provider: ProviderOpenAI, Status: resp.StatusCode, Message: fmt.Sprintf("openai: http %d", resp.StatusCode)}
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].B64JSON) == "" {
		return nil, domain.ErrEmptyGenerationResult
	}
	return &EditResult{ImageBase64: out.Data[0].B64JSON, MIMEType: "image/png"}, nil
}

func (c *OpenAIClient) encodeForm(in EditRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"model", c.model},
		{"prompt", in.Prompt},
		{"size", c.size},
		{"quality", c.quality},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	for i, img := range in.Images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image-%d%s", i+1, extForMIME(img.MIMEType))
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="%s"`, escapeQuotes(name)))
		h.Set("Content-Type", firstNonEmpty(img.MIMEType, "image/jpeg"))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
