package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/airsketch/internal/app"
	"github.com/ayusman/airsketch/pkg/log"
)

// CameraSwitcher is the part of app.App the camera endpoint needs.
type CameraSwitcher interface {
	SwitchCamera(id int) error
	CameraID() int
}

type cameraBody struct {
	DeviceID *int `json:"device_id"`
}

type cameraResponse struct {
	DeviceID int `json:"device_id"`
}

// CameraHandler handles GET|POST /api/camera.
type CameraHandler struct {
	cameras CameraSwitcher
}

// NewCameraHandler creates a CameraHandler.
func NewCameraHandler(cameras CameraSwitcher) *CameraHandler {
	return &CameraHandler{cameras: cameras}
}

// ServeHTTP implements the http.Handler interface.
func (h *CameraHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, cameraResponse{DeviceID: h.cameras.CameraID()})
	case http.MethodPost:
		var req cameraBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.DeviceID == nil || *req.DeviceID < 0 {
			writeError(w, http.StatusBadRequest, "device_id is required")
			return
		}
		if err := h.cameras.SwitchCamera(*req.DeviceID); err != nil {
			log.Error(log.Fields{"device": *req.DeviceID, "error": err}, "[api.Camera] switch failed")
			writeError(w, http.StatusBadGateway, "Failed to switch camera")
			return
		}
		writeJSON(w, http.StatusOK, cameraResponse{DeviceID: h.cameras.CameraID()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type diagnosticsResponse struct {
	Session string `json:"session"`
	app.Diagnostics
	Last app.FrameState `json:"last"`
}

// DiagnosticsHandler reports session counters on GET /api/diagnostics.
type DiagnosticsHandler struct {
	session *app.Session
}

// NewDiagnosticsHandler creates a DiagnosticsHandler for session.
func NewDiagnosticsHandler(session *app.Session) *DiagnosticsHandler {
	return &DiagnosticsHandler{session: session}
}

// ServeHTTP implements the http.Handler interface.
func (h *DiagnosticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, diagnosticsResponse{
		Session:     h.session.ID,
		Diagnostics: h.session.Diagnostics(),
		Last:        h.session.Last(),
	})
}
