package booth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karlselfie/internal/domain"
)

func TestClientSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/render", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "en", r.Header.Get("X-Locale"))
		file, hdr, err := r.FormFile("selfie")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte("jpeg-bytes"), data)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "7", r.FormValue("sceneIndex"))
		assert.Empty(t, r.FormValue("customPrompt"))

		_ = json.NewEncoder(w).Encode(domain.RenderResult{ImageBase64: "aW1n", PromptUsed: "p", FullPrompt: "fp"})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL+"/", srv.Client()).Submit(context.Background(), Submission{
		Photo:      []byte("jpeg-bytes"),
		SceneIndex: "7",
		Locale:     "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "aW1n", res.ImageBase64)
	assert.Equal(t, "p", res.PromptUsed)
}

func TestClientSubmitCustomPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Karl im Zoo", r.FormValue("customPrompt"))
		assert.Empty(t, r.FormValue("sceneIndex"))
		_ = json.NewEncoder(w).Encode(domain.RenderResult{ImageBase64: "aW1n"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Submit(context.Background(), Submission{
		Photo:        []byte("x"),
		SceneIndex:   "3",
		CustomPrompt: "Karl im Zoo",
	})
	require.NoError(t, err)
}

func TestClientSubmitErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"validation", 400, `{"error":"No scene description provided"}`, domain.ErrInvalidInput, "No scene description provided"},
		{"upstream", 500, `{"error":"boom","details":"openai: status 500"}`, domain.ErrUpstream, "boom: openai: status 500"},
		{"not json", 502, `bad gateway`, domain.ErrUpstream, "render server: http 502"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).Submit(context.Background(), Submission{Photo: []byte("x"), SceneIndex: "1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.msg, err.Error())
			var remote *RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, tc.status, remote.Status)
		})
	}
}

func TestClientSubmitEmptyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"imageBase64":""}`)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL, nil).Submit(context.Background(), Submission{Photo: []byte("x"), SceneIndex: "1"})
	assert.ErrorIs(t, err, domain.ErrEmptyGenerationResult)
}

func TestClientSubmitMissingPhoto(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", nil).Submit(context.Background(), Submission{SceneIndex: "1"})
	assert.ErrorIs(t, err, domain.ErrMissingPhoto)
}

func TestClientScenes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/scenes", r.URL.Path)
		_, _ = io.WriteString(w, `{"scenes":[{"id":1,"emoji":"🍕","shortTitle":"Pizza","fullPrompt":"p"}],"count":1}`)
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL, nil).Scenes(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pizza", list[0].ShortTitle)
}
