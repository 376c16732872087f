// Package app wires the camera, the hand detector and the drawing session
// into a single frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airsketch/internal/capture"
	"github.com/ayusman/airsketch/internal/detector"
	"github.com/ayusman/airsketch/pkg/log"
)

// ErrNotRunning is returned when an operation needs a live frame loop.
var ErrNotRunning = errors.New("app: not running")

// Config holds configuration options for the application.
type Config struct {
	Camera         capture.Config
	Detector       detector.Config
	DebounceFrames int
	Color          color.RGBA
	Debug          bool
}

// CameraFactory opens camera handles. Tests swap it for mocks.
type CameraFactory func(capture.Config) capture.Camera

// App runs the frame loop: camera, detector, session.
type App struct {
	config    Config
	session   *Session
	newCamera CameraFactory
	// enabled is read by the frame loop, which Stop waits on while holding mu.
	enabled atomic.Bool

	mu       sync.RWMutex
	camera   capture.Camera
	detector detector.Detector
	cancel   context.CancelFunc
	done     chan struct{}

	frameMu   sync.RWMutex
	lastFrame image.Image
}

// New creates an App. The MediaPipe detector is used when its script can be
// found, otherwise a MockDetector that never sees a hand.
func New(config Config) *App {
	config.Camera = withCameraDefaults(config.Camera)

	a := &App{
		config:    config,
		newCamera: capture.NewCamera,
		session: NewSession(SessionOptions{
			Width:          config.Camera.Width,
			Height:         config.Camera.Height,
			DebounceFrames: config.DebounceFrames,
			Color:          config.Color,
			Debug:          config.Debug,
		}),
	}
	a.enabled.Store(true)

	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.WithSession(a.session.ID).Info("[app.New] using MediaPipe hand detection")
	} else {
		log.Warn(log.Fields{"error": err}, "[app.New] MediaPipe not available, using mock detector")
		a.detector = detector.NewMockDetector()
	}

	return a
}

func withCameraDefaults(c capture.Config) capture.Config {
	d := capture.DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.FPS <= 0 {
		c.FPS = d.FPS
	}
	return c
}

// Session returns the drawing session.
func (a *App) Session() *Session {
	return a.session
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetCameraFactory replaces how cameras are opened. Takes effect on the next
// Start or SwitchCamera.
func (a *App) SetCameraFactory(f CameraFactory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newCamera = f
}

// SetEnabled enables or disables drawing. Frames still flow while disabled
// so the preview stays live.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled returns whether drawing is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// IsRunning reports whether the frame loop is active.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// CameraID returns the configured camera device.
func (a *App) CameraID() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Camera.DeviceID
}

// Start opens the camera and begins the frame loop. Starting a running app
// is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	return a.startLocked()
}

func (a *App) startLocked() error {
	cam := a.newCamera(a.config.Camera)
	if err := cam.Open(); err != nil {
		log.Error(log.Fields{"device": a.config.Camera.DeviceID, "error": err}, "[app.Start] failed to open camera")
		return fmt.Errorf("start camera %d: %w", a.config.Camera.DeviceID, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	a.camera = cam
	a.cancel = cancel
	a.done = done

	go a.run(ctx, cam, a.detector, done)

	log.WithSession(a.session.ID).WithFields(log.Fields{"device": cam.DeviceID(), "fps": cam.FPS()}).Info("[app.Start] frame loop started")
	return nil
}

// Stop halts the frame loop and waits for it to exit before releasing the
// camera. The drawing is kept.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Warn(log.Fields{"error": err}, "[app.Stop] error closing detector")
		}
	}

	log.WithSession(a.session.ID).Info("[app.Stop] frame loop stopped")
}

func (a *App) stopLocked() {
	if a.cancel == nil {
		return
	}

	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil

	if err := a.camera.Close(); err != nil {
		log.Warn(log.Fields{"error": err}, "[app.Stop] error closing camera")
	}
	a.camera = nil

	a.frameMu.Lock()
	a.lastFrame = nil
	a.frameMu.Unlock()

	a.session.Idle()
}

// SwitchCamera moves the frame loop to another device. The previous loop has
// exited before the new camera is opened. On an app that isn't running only
// the configured device changes.
func (a *App) SwitchCamera(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.config.Camera.DeviceID
	a.config.Camera.DeviceID = id

	if a.cancel == nil {
		return nil
	}

	a.stopLocked()
	if err := a.startLocked(); err != nil {
		a.config.Camera.DeviceID = prev
		if rerr := a.startLocked(); rerr != nil {
			log.Error(log.Fields{"device": prev, "error": rerr}, "[app.SwitchCamera] failed to reopen previous camera")
		}
		return fmt.Errorf("switch camera to %d: %w", id, err)
	}

	log.Info(log.Fields{"from": prev, "to": id}, "[app.SwitchCamera] switched camera")
	return nil
}

// Preview returns the latest camera frame with the drawing composed on top.
func (a *App) Preview() (*image.RGBA, error) {
	a.frameMu.RLock()
	frame := a.lastFrame
	a.frameMu.RUnlock()

	if frame == nil {
		return nil, ErrNotRunning
	}
	return a.session.Compose(frame), nil
}

func (a *App) run(ctx context.Context, cam capture.Camera, det detector.Detector, done chan struct{}) {
	defer close(done)

	fps := cam.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.step(cam, det)
		}
	}
}

// step processes a single frame.
func (a *App) step(cam capture.Camera, det detector.Detector) {
	frame, err := cam.ReadFrame()
	if err != nil {
		log.Debug(log.Fields{"error": err}, "[app.step] error reading frame")
		return
	}
	defer frame.Close()

	a.keepFrame(frame)

	if !a.IsEnabled() {
		a.session.Idle()
		return
	}

	b := a.session.surface.Bounds()
	if det == nil {
		a.session.HandleFrame(nil, b.Dx(), b.Dy())
		return
	}

	hands, err := det.Detect(frame)
	if err != nil {
		log.Warn(log.Fields{"error": err}, "[app.step] error detecting hands")
		a.session.DetectorFailed(b.Dx(), b.Dy())
		return
	}

	a.session.HandleFrame(hands, b.Dx(), b.Dy())
}

func (a *App) keepFrame(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	img, err := frame.ToImage()
	if err != nil {
		log.Debug(log.Fields{"error": err}, "[app.step] frame to image")
		return
	}

	a.frameMu.Lock()
	a.lastFrame = img
	a.frameMu.Unlock()
}
