package booth

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

// RemoteError is a structured error answered by the render endpoint.
type RemoteError struct {
	Status int
	Body   domain.RenderError
}

func (e *RemoteError) Error() string {
	if e.Body.Details != "" {
		return e.Body.Error + ": " + e.Body.Details
	}
	return e.Body.Error
}

func (e *RemoteError) Unwrap() error {
	if e.Status >= 400 && e.Status < 500 {
		return domain.ErrInvalidInput
	}
	return domain.ErrUpstream
}

// Client talks to the render server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Submit posts the photo and scene selector to /api/render.
func (c *Client) Submit(ctx context.Context, s Submission) (*domain.RenderResult, error) {
	if len(s.Photo) == 0 {
		return nil, domain.ErrMissingPhoto
	}
	body, contentType, err := encodeSubmission(s)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/render", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if s.Locale != "" {
		req.Header.Set("X-Locale", s.Locale)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		var rerr domain.RenderError
		if json.Unmarshal(raw, &rerr) != nil || rerr.Error == "" {
			rerr.Error = fmt.Sprintf("render server: http %d", resp.StatusCode)
		}
		return nil, &RemoteError{Status: resp.StatusCode, Body: rerr}
	}
	var out domain.RenderResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrUpstream, err)
	}
	if out.ImageBase64 == "" {
		return nil, domain.ErrEmptyGenerationResult
	}
	return &out, nil
}

// Scenes fetches the catalog from /api/scenes.
func (c *Client) Scenes(ctx context.Context) ([]domain.Scene, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/scenes", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scenes: http %d", domain.ErrUpstream, resp.StatusCode)
	}
	var payload struct {
		Scenes []domain.Scene `json:"scenes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode scenes: %w", domain.ErrUpstream, err)
	}
	if len(payload.Scenes) == 0 {
		return nil, errors.New("render server returned no scenes")
	}
	return payload.Scenes, nil
}

func encodeSubmission(s Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	mime := s.PhotoMIME
	if mime == "" {
		mime = "image/jpeg"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="selfie"; filename="selfie.jpg"`)
	h.Set("Content-Type", mime)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(s.Photo); err != nil {
		return nil, "", err
	}

	if strings.TrimSpace(s.CustomPrompt) != "" {
		if err := mw.WriteField("customPrompt", s.CustomPrompt); err != nil {
			return nil, "", err
		}
	} else if s.SceneIndex != "" {
		if err := mw.WriteField("sceneIndex", s.SceneIndex); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
