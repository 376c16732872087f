package server

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airsketch/internal/app"
	"github.com/ayusman/airsketch/pkg/log"
)

// Previewer produces the composed camera-plus-drawing image.
type Previewer interface {
	Preview() (*image.RGBA, error)
}

// StreamHandler serves the composed preview as MJPEG.
type StreamHandler struct {
	source   Previewer
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source Previewer) *StreamHandler {
	return &StreamHandler{source: source, interval: 66 * time.Millisecond}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		img, err := h.source.Preview()
		if err != nil {
			if !errors.Is(err, app.ErrNotRunning) {
				log.Debug(log.Fields{"error": err}, "[server.Stream] preview failed")
			}
			continue
		}

		jpeg, err := encodeJPEG(img)
		if err != nil {
			log.Debug(log.Fields{"error": err}, "[server.Stream] encode failed")
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func encodeJPEG(img *image.RGBA) ([]byte, error) {
	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, bgr)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
