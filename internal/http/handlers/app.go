package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"karlselfie/internal/domain"
	"karlselfie/internal/render"
)

type Renderer interface {
	Render(ctx context.Context, req render.Request) (*domain.RenderResult, error)
}

type SceneLister interface {
	List() []domain.Scene
}

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Renderer       Renderer
	SceneCatalog   SceneLister
	Logger         zerolog.Logger
	MaxUploadBytes int64
	Provider       string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, body domain.RenderError) {
	a.json(w, code, body)
}
