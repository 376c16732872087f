package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airsketch/internal/app"
	"github.com/ayusman/airsketch/pkg/log"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameSource publishes per-frame session state.
type FrameSource interface {
	Subscribe() (<-chan app.FrameState, func())
}

// FramesHandler pushes every FrameState to WebSocket clients as JSON.
type FramesHandler struct {
	source FrameSource
}

// NewFramesHandler creates a new FramesHandler.
func NewFramesHandler(source FrameSource) *FramesHandler {
	return &FramesHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(log.Fields{"error": err}, "[server.Frames] websocket upgrade error")
		return
	}
	defer conn.Close()

	frames, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// The client never sends anything useful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case fs, ok := <-frames:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(fs); err != nil {
				log.Debug(log.Fields{"error": err}, "[server.Frames] write failed")
				return
			}
		}
	}
}
