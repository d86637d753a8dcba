package handlers

import (
	"net/http"

	"karlselfie/internal/domain"
)

// Scenes lists the scene catalog for the selection screen.
func (a *App) Scenes(w http.ResponseWriter, r *http.Request) {
	list := []domain.Scene{}
	if a.SceneCatalog != nil {
		list = a.SceneCatalog.List()
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	a.json(w, http.StatusOK, map[string]any{"scenes": list, "count": len(list)})
}
