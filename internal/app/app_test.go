package app

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airsketch/internal/capture"
	"github.com/ayusman/airsketch/internal/detector"
	"github.com/ayusman/airsketch/internal/stroke"
)

// failingCamera never opens.
type failingCamera struct{ id int }

func (c *failingCamera) Open() error                   { return errors.New("no such device") }
func (c *failingCamera) Close() error                  { return nil }
func (c *failingCamera) ReadFrame() (*gocv.Mat, error) { return nil, capture.ErrCameraNotOpen }
func (c *failingCamera) SetFPS(int)                    {}
func (c *failingCamera) FPS() int                      { return capture.DefaultFPS }
func (c *failingCamera) IsOpen() bool                  { return false }
func (c *failingCamera) DeviceID() int                 { return c.id }

type cameraRig struct {
	mu      sync.Mutex
	frames  []*gocv.Mat
	opened  []*capture.MockCamera
	failing map[int]bool
}

func newCameraRig(t *testing.T) *cameraRig {
	t.Helper()
	frame := gocv.NewMatWithSize(frameH, frameW, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return &cameraRig{frames: []*gocv.Mat{&frame}, failing: map[int]bool{}}
}

func (r *cameraRig) factory(cfg capture.Config) capture.Camera {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failing[cfg.DeviceID] {
		return &failingCamera{id: cfg.DeviceID}
	}
	cam := capture.NewMockDevice(cfg.DeviceID, r.frames, true)
	r.opened = append(r.opened, cam)
	return cam
}

func (r *cameraRig) cameras() []*capture.MockCamera {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*capture.MockCamera(nil), r.opened...)
}

func newTestApp(t *testing.T, rig *cameraRig, det detector.Detector) *App {
	t.Helper()
	a := New(Config{
		Camera: capture.Config{Width: frameW, Height: frameH, FPS: 60},
		Color:  red,
	})
	a.SetCameraFactory(rig.factory)
	a.SetDetector(det)
	t.Cleanup(a.Stop)
	return a
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApp_DrawsFromDetector(t *testing.T) {
	det := detector.NewMockDetector()
	p := detector.PointingLandmarks()
	det.SetSequence([][]detector.HandLandmarks{{p}, {p.Translate(0.1, 0)}})

	a := newTestApp(t, newCameraRig(t), det)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.IsRunning() {
		t.Fatal("expected app to be running")
	}

	waitFor(t, "segment", func() bool { return a.Session().Diagnostics().SegmentsDrawn == 1 })

	// The script ends, so the hand disappears and the session goes idle.
	waitFor(t, "idle", func() bool { return a.Session().Mode() == stroke.Idle })
}

func TestApp_StartTwiceIsNoop(t *testing.T) {
	rig := newCameraRig(t)
	a := newTestApp(t, rig, detector.NewMockDetector())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if n := len(rig.cameras()); n != 1 {
		t.Errorf("opened %d cameras, want 1", n)
	}
}

func TestApp_DetectorErrorsAreCounted(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetError(errors.New("pipe closed"))

	a := newTestApp(t, newCameraRig(t), det)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "detector errors", func() bool { return a.Session().Diagnostics().DetectorErrors >= 2 })

	if d := a.Session().Diagnostics(); d.FramesWithHand != 0 {
		t.Errorf("FramesWithHand = %d, want 0", d.FramesWithHand)
	}
}

func TestApp_DisabledSkipsDetection(t *testing.T) {
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.PointingLandmarks()})

	a := newTestApp(t, newCameraRig(t), det)
	a.SetEnabled(false)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "preview frame", func() bool {
		_, err := a.Preview()
		return err == nil
	})
	time.Sleep(50 * time.Millisecond)

	if det.Calls() != 0 {
		t.Errorf("detector called %d times while disabled", det.Calls())
	}

	a.SetEnabled(true)
	waitFor(t, "detection", func() bool { return det.Calls() > 0 })
}

func TestApp_SwitchCamera(t *testing.T) {
	rig := newCameraRig(t)
	a := newTestApp(t, rig, detector.NewMockDetector())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.SwitchCamera(1); err != nil {
		t.Fatalf("SwitchCamera() error = %v", err)
	}

	cams := rig.cameras()
	if len(cams) != 2 {
		t.Fatalf("opened %d cameras, want 2", len(cams))
	}
	if cams[0].IsOpen() {
		t.Error("previous camera should be closed")
	}
	if !cams[1].IsOpen() || cams[1].DeviceID() != 1 {
		t.Errorf("new camera open=%v id=%d", cams[1].IsOpen(), cams[1].DeviceID())
	}
	if a.CameraID() != 1 {
		t.Errorf("CameraID() = %d, want 1", a.CameraID())
	}
}

func TestApp_SwitchCameraFailureKeepsPrevious(t *testing.T) {
	rig := newCameraRig(t)
	rig.failing[7] = true
	a := newTestApp(t, rig, detector.NewMockDetector())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.SwitchCamera(7); err == nil {
		t.Fatal("expected error switching to a failing camera")
	}

	if a.CameraID() != 0 {
		t.Errorf("CameraID() = %d, want 0", a.CameraID())
	}
	if !a.IsRunning() {
		t.Error("app should still be running on the previous camera")
	}
	cams := rig.cameras()
	if !cams[len(cams)-1].IsOpen() {
		t.Error("previous device should have been reopened")
	}
}

func TestApp_SwitchCameraWhileStopped(t *testing.T) {
	rig := newCameraRig(t)
	a := newTestApp(t, rig, detector.NewMockDetector())

	if err := a.SwitchCamera(2); err != nil {
		t.Fatalf("SwitchCamera() error = %v", err)
	}
	if len(rig.cameras()) != 0 {
		t.Error("no camera should be opened while stopped")
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if cams := rig.cameras(); cams[0].DeviceID() != 2 {
		t.Errorf("started on device %d, want 2", cams[0].DeviceID())
	}
}

func TestApp_StartFailure(t *testing.T) {
	rig := newCameraRig(t)
	rig.failing[0] = true
	a := newTestApp(t, rig, detector.NewMockDetector())

	if err := a.Start(); err == nil {
		t.Fatal("expected Start() error")
	}
	if a.IsRunning() {
		t.Error("app should not be running")
	}
}

func TestApp_StopKeepsDrawing(t *testing.T) {
	det := detector.NewMockDetector()
	p := detector.PointingLandmarks()
	det.SetSequence([][]detector.HandLandmarks{{p}, {p.Translate(0.1, 0)}})

	rig := newCameraRig(t)
	a := newTestApp(t, rig, det)
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "segment", func() bool { return a.Session().Diagnostics().SegmentsDrawn == 1 })

	a.Stop()
	a.Stop()

	if a.IsRunning() {
		t.Error("app should be stopped")
	}
	if rig.cameras()[0].IsOpen() {
		t.Error("camera should be closed")
	}
	if _, err := a.Preview(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Preview() error = %v, want ErrNotRunning", err)
	}
	if pixel(a.Session(), 403, 168).A == 0 {
		t.Error("drawing should survive Stop")
	}
}

func TestApp_PreviewComposesFrame(t *testing.T) {
	a := newTestApp(t, newCameraRig(t), detector.NewMockDetector())

	if _, err := a.Preview(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Preview() before start error = %v, want ErrNotRunning", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var err error
	waitFor(t, "preview", func() bool {
		_, err = a.Preview()
		return err == nil
	})

	img, _ := a.Preview()
	if b := img.Bounds(); b.Dx() != frameW || b.Dy() != frameH {
		t.Errorf("preview size = %v", b)
	}
}
