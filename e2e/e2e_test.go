package e2e

import (
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airsketch/internal/app"
	"github.com/ayusman/airsketch/internal/capture"
	"github.com/ayusman/airsketch/internal/detector"
	"github.com/ayusman/airsketch/internal/server"
	"github.com/ayusman/airsketch/testdata"
)

// playback runs a recording through a live App with a mock camera and
// detector, and waits until every recorded frame has been processed.
func playback(t *testing.T, name string) *app.App {
	t.Helper()

	rec, err := testdata.LoadRecording(name)
	if err != nil {
		t.Fatalf("LoadRecording(%s) error = %v", name, err)
	}

	frame := gocv.NewMatWithSize(rec.Height, rec.Width, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	application := app.New(app.Config{
		Camera: capture.Config{Width: rec.Width, Height: rec.Height, FPS: 60},
	})
	application.SetCameraFactory(func(cfg capture.Config) capture.Camera {
		return capture.NewMockDevice(cfg.DeviceID, []*gocv.Mat{&frame}, true)
	})

	mockDetector := detector.NewMockDetector()
	mockDetector.SetSequence(rec.Frames)
	application.SetDetector(mockDetector)

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(application.Stop)

	deadline := time.Now().Add(5 * time.Second)
	for mockDetector.Calls() < len(rec.Frames) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d of %d frames", mockDetector.Calls(), len(rec.Frames))
		}
		time.Sleep(10 * time.Millisecond)
	}
	application.Stop()

	return application
}

func inked(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				n++
			}
		}
	}
	return n
}

func exportPNG(t *testing.T, ts *httptest.Server) image.Image {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + "/api/canvas")
	if err != nil {
		t.Fatalf("GET /api/canvas error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func diagnostics(t *testing.T, ts *httptest.Server) map[string]interface{} {
	t.Helper()

	resp, err := ts.Client().Get(ts.URL + "/api/diagnostics")
	if err != nil {
		t.Fatalf("GET /api/diagnostics error = %v", err)
	}
	defer resp.Body.Close()

	var d map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	return d
}

func TestE2E_DrawLine(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	application := playback(t, "draw_line")
	ts := httptest.NewServer(server.New(server.Config{App: application}))
	defer ts.Close()

	d := diagnostics(t, ts)
	if d["segments_drawn"] != float64(4) {
		t.Errorf("segments_drawn = %v, want 4", d["segments_drawn"])
	}
	if inked(exportPNG(t, ts)) == 0 {
		t.Error("expected ink on the exported canvas")
	}
}

func TestE2E_DrawThenErase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	application := playback(t, "draw_then_erase")
	ts := httptest.NewServer(server.New(server.Config{App: application}))
	defer ts.Close()

	d := diagnostics(t, ts)
	if d["segments_drawn"] != float64(2) || d["segments_erased"] != float64(2) {
		t.Errorf("unexpected counters: drawn=%v erased=%v", d["segments_drawn"], d["segments_erased"])
	}
	if n := inked(exportPNG(t, ts)); n != 0 {
		t.Errorf("%d pixels survived the eraser", n)
	}
}

func TestE2E_MalformedSample(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	application := playback(t, "malformed")
	ts := httptest.NewServer(server.New(server.Config{App: application}))
	defer ts.Close()

	d := diagnostics(t, ts)
	if d["malformed_samples"] != float64(1) {
		t.Errorf("malformed_samples = %v, want 1", d["malformed_samples"])
	}
	// The truncated frame breaks the stroke, so only the last pair joins.
	if d["segments_drawn"] != float64(1) {
		t.Errorf("segments_drawn = %v, want 1", d["segments_drawn"])
	}
}

func TestE2E_ClearAndRecolor(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	application := playback(t, "draw_line")
	ts := httptest.NewServer(server.New(server.Config{App: application}))
	defer ts.Close()

	client := ts.Client()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/color", strings.NewReader(`{"color":"#34c759"}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/color error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}

	resp, err = client.Post(ts.URL+"/api/canvas/clear", "application/json", nil)
	if err != nil {
		t.Fatalf("POST clear error = %v", err)
	}
	resp.Body.Close()

	if n := inked(exportPNG(t, ts)); n != 0 {
		t.Errorf("%d pixels left after clear", n)
	}
}
