package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/airsketch/internal/canvas"
	"github.com/ayusman/airsketch/internal/detector"
	"github.com/ayusman/airsketch/internal/gesture"
	"github.com/ayusman/airsketch/internal/stroke"
	"github.com/ayusman/airsketch/pkg/log"
)

// Diagnostics counts what the session has seen since it was created.
type Diagnostics struct {
	FramesProcessed  uint64 `json:"frames_processed"`
	FramesWithHand   uint64 `json:"frames_with_hand"`
	MalformedSamples uint64 `json:"malformed_samples"`
	DetectorErrors   uint64 `json:"detector_errors"`
	SegmentsDrawn    uint64 `json:"segments_drawn"`
	SegmentsErased   uint64 `json:"segments_erased"`
}

// FrameState is the per-frame summary published to subscribers.
type FrameState struct {
	Session string          `json:"session"`
	Frame   uint64          `json:"frame"`
	HasHand bool            `json:"has_hand"`
	Pose    gesture.Pose    `json:"pose"`
	Mode    stroke.Mode     `json:"mode"`
	Metrics gesture.Metrics `json:"metrics"`
	Color   string          `json:"color"`
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	Width, Height int
	// Classifier defaults to gesture.NewFingerExtension.
	Classifier gesture.Classifier
	// DebounceFrames > 1 wraps the classifier in gesture.Debounce.
	DebounceFrames int
	// Color is the initial stroke color. The zero value means canvas.DefaultColor.
	Color color.RGBA
	Debug bool
}

// Session is one drawing: the stroke state, its surface and overlay, and the
// counters around them. HandleFrame must be driven by a single goroutine; the
// other methods are safe to call from anywhere.
type Session struct {
	ID string

	mu         sync.Mutex
	state      stroke.State
	classifier gesture.Classifier
	debounce   *gesture.Debounce
	debug      bool
	diag       Diagnostics
	last       FrameState

	surface *canvas.Surface
	overlay *canvas.Overlay
	palette *canvas.Palette

	subMu   sync.Mutex
	subs    map[int]chan FrameState
	nextSub int
}

// NewSession returns an idle session with a transparent surface.
func NewSession(opts SessionOptions) *Session {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = gesture.NewFingerExtension()
	}

	if opts.Color == (color.RGBA{}) {
		opts.Color = canvas.DefaultColor
	}

	s := &Session{
		ID:      uuid.NewString(),
		debug:   opts.Debug,
		surface: canvas.NewSurface(opts.Width, opts.Height),
		overlay: canvas.NewOverlay(opts.Width, opts.Height),
		palette: canvas.NewPalette(opts.Color),
		subs:    make(map[int]chan FrameState),
	}

	if opts.DebounceFrames > 1 {
		s.debounce = gesture.NewDebounce(classifier, opts.DebounceFrames)
		classifier = s.debounce
	}
	s.classifier = classifier
	s.last = FrameState{Session: s.ID, Color: canvas.Hex(s.palette.Color())}

	return s
}

// HandleFrame runs one reducer step on the first of hands. w and h are the
// pixel size landmarks are projected onto. A malformed first hand counts as
// no hand.
func (s *Session) HandleFrame(hands []detector.HandLandmarks, w, h int) FrameState {
	s.mu.Lock()

	var hand *detector.HandLandmarks
	if len(hands) > 0 {
		hand = &hands[0]
		if err := detector.Validate(hand); err != nil {
			if errors.Is(err, detector.ErrMalformedSample) {
				s.diag.MalformedSamples++
			}
			log.WithSession(s.ID).WithError(err).Debug("[app.HandleFrame] dropping sample")
			hand = nil
		}
	}

	if hand == nil && s.debounce != nil {
		s.debounce.Reset()
	}

	c := s.palette.Color()
	next, cmds, res := stroke.ProcessFrame(stroke.Input{
		Hand:       hand,
		Width:      w,
		Height:     h,
		Classifier: s.classifier,
		Color:      c,
		Debug:      s.debug,
	}, s.state)
	s.state = next

	n := canvas.Apply(s.surface, s.overlay, cmds)

	s.diag.FramesProcessed++
	if res.HasHand {
		s.diag.FramesWithHand++
	}
	s.diag.SegmentsDrawn += uint64(n.Drawn)
	s.diag.SegmentsErased += uint64(n.Erased)

	fs := FrameState{
		Session: s.ID,
		Frame:   s.diag.FramesProcessed,
		HasHand: res.HasHand,
		Pose:    res.Pose,
		Mode:    next.Mode,
		Metrics: res.Metrics,
		Color:   canvas.Hex(c),
	}
	s.last = fs
	s.mu.Unlock()

	s.publish(fs)
	return fs
}

// DetectorFailed records a failed detection. The frame is then handled as
// having no hand.
func (s *Session) DetectorFailed(w, h int) FrameState {
	s.mu.Lock()
	s.diag.DetectorErrors++
	s.mu.Unlock()

	return s.HandleFrame(nil, w, h)
}

// Idle drops any active stroke without touching the surface.
func (s *Session) Idle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = stroke.State{Mode: stroke.Idle}
	if s.debounce != nil {
		s.debounce.Reset()
	}
	s.overlay.Clear()
}

// Mode returns the current stroke mode.
func (s *Session) Mode() stroke.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Mode
}

// Clear wipes the surface. Stroke state is left alone.
func (s *Session) Clear() {
	s.surface.Clear()
}

// Export returns the surface as PNG bytes.
func (s *Session) Export() ([]byte, error) {
	return s.surface.Snapshot()
}

// SaveTo writes the surface as a PNG into dir and returns the file path.
func (s *Session) SaveTo(dir string) (string, error) {
	data, err := s.Export()
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("airsketch-%s-%s.png", s.ID, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	log.WithSession(s.ID).WithField("path", path).Info("[app.SaveTo] drawing saved")
	return path, nil
}

// Compose draws the surface and overlay on top of background, which may be nil.
func (s *Session) Compose(background image.Image) *image.RGBA {
	return canvas.Compose(background, s.surface, s.overlay)
}

// Palette returns the session's current-color holder.
func (s *Session) Palette() *canvas.Palette {
	return s.palette
}

// Diagnostics returns a copy of the counters.
func (s *Session) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diag
}

// Last returns the most recent frame state.
func (s *Session) Last() FrameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe registers for frame states. Slow subscribers miss frames rather
// than block the pipeline. Call the returned func to unsubscribe.
func (s *Session) Subscribe() (<-chan FrameState, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan FrameState, 8)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Session) publish(fs FrameState) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- fs:
		default:
		}
	}
}
