package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/airsketch/internal/canvas"
)

type colorBody struct {
	Color string `json:"color"`
}

// ColorHandler reads and sets the stroke color on GET|PUT /api/color.
type ColorHandler struct {
	palette *canvas.Palette
}

// NewColorHandler creates a ColorHandler for palette.
func NewColorHandler(palette *canvas.Palette) *ColorHandler {
	return &ColorHandler{palette: palette}
}

// ServeHTTP implements the http.Handler interface.
func (h *ColorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, colorBody{Color: canvas.Hex(h.palette.Color())})
	case http.MethodPut:
		var req colorBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		c, err := canvas.ParseHex(req.Color)
		if err != nil {
			if errors.Is(err, canvas.ErrInvalidColor) {
				writeError(w, http.StatusBadRequest, "Color must be #rrggbb")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.palette.Set(c)
		writeJSON(w, http.StatusOK, colorBody{Color: canvas.Hex(c)})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
