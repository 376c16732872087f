package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ayusman/airsketch/internal/app"
	"github.com/ayusman/airsketch/pkg/log"
)

// CanvasHandler serves the drawing surface.
//
//	GET  /api/canvas        PNG of the surface
//	POST /api/canvas/clear  wipe the surface
type CanvasHandler struct {
	session *app.Session
}

// NewCanvasHandler creates a CanvasHandler for session.
func NewCanvasHandler(session *app.Session) *CanvasHandler {
	return &CanvasHandler{session: session}
}

// ServeHTTP implements the http.Handler interface.
func (h *CanvasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/canvas")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.export(w, r)
	case "clear":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.session.Clear()
		log.WithSession(h.session.ID).Info("[api.Canvas] surface cleared")
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (h *CanvasHandler) export(w http.ResponseWriter, r *http.Request) {
	data, err := h.session.Export()
	if err != nil {
		log.Error(log.Fields{"error": err}, "[api.Canvas] export failed")
		writeError(w, http.StatusInternalServerError, "Failed to export canvas")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "airsketch-"+h.session.ID+".png"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
