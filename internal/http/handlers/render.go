package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"karlselfie/internal/domain"
	"karlselfie/internal/hints"
	"karlselfie/internal/middleware"
	"karlselfie/internal/render"
)

const multipartMemory = 8 << 20

// Render handles POST /api/render. The body is multipart with a "selfie"
// file and either "customPrompt" or "sceneIndex".
func (a *App) Render(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}

	req, err := readRenderForm(r)
	if err != nil {
		a.fail(w, r, locale, err)
		return
	}
	req.Locale = locale

	res, err := a.Renderer.Render(r.Context(), req)
	if err != nil {
		a.fail(w, r, locale, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func readRenderForm(r *http.Request) (render.Request, error) {
	var req render.Request
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return req, domain.ErrMissingPhoto
		}
		return req, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	req.CustomPrompt = r.FormValue("customPrompt")
	req.SceneIndex = r.FormValue("sceneIndex")

	file, header, err := r.FormFile("selfie")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, domain.ErrMissingPhoto
		}
		return req, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, fmt.Errorf("%w: read selfie: %v", domain.ErrInvalidInput, err)
	}
	req.Photo = data
	req.PhotoName = header.Filename
	req.PhotoMIME = partContentType(header)
	return req, nil
}

func partContentType(h *multipart.FileHeader) string {
	ct := strings.TrimSpace(h.Header.Get("Content-Type"))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// fail maps err to a status and writes the JSON error body. Validation
// errors are the caller's fault; everything else is a 500.
func (a *App) fail(w http.ResponseWriter, r *http.Request, locale string, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	if kind == domain.KindValidation {
		status = http.StatusBadRequest
	}

	body := domain.RenderError{Error: errorMessage(err)}
	var up *domain.UpstreamError
	if errors.As(err, &up) {
		body.Details = upstreamDetails(up)
	} else if kind != domain.KindValidation && body.Error != err.Error() {
		body.Details = err.Error()
	}
	if kind == domain.KindUpstream || kind == domain.KindUpstreamRejection {
		body.Hint = hints.For(err.Error(), locale)
	}

	evt := a.Logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = a.Logger.Error()
	}
	evt.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("kind", string(kind)).
		Int("status", status).
		Msg("render request failed")

	a.error(w, status, body)
}

var publicErrors = []error{
	domain.ErrMissingPhoto,
	domain.ErrMissingScene,
	domain.ErrMissingCredential,
	domain.ErrReferenceAssetMissing,
	domain.ErrEmptyGenerationResult,
	domain.ErrUpstreamTimeout,
}

// errorMessage picks the sentinel text for known failures so the body never
// depends on how deep the error was wrapped.
func errorMessage(err error) string {
	var up *domain.UpstreamError
	if errors.As(err, &up) {
		return up.Error()
	}
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrUpstream) {
		return err.Error()
	}
	return "Unknown error occurred"
}

func upstreamDetails(up *domain.UpstreamError) string {
	parts := []string{up.Provider}
	if up.Status != 0 {
		parts = append(parts, fmt.Sprintf("status %d", up.Status))
	}
	if up.Code != "" {
		parts = append(parts, up.Code)
	}
	return strings.Join(parts, ": ")
}
