// Package stroke implements the draw/erase state machine as a pure reducer
// over per-frame hand input.
package stroke

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/airsketch/internal/detector"
	"github.com/ayusman/airsketch/internal/gesture"
)

// Size laws relative to the current frame's palm width.
const (
	BrushFactor  = 0.4
	EraserFactor = 1.5

	// MinStrokeWidth keeps degenerate hands from producing invisible strokes.
	MinStrokeWidth = 1.0
)

// Mode is the active stroke mode.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Erasing
)

func (m Mode) String() string {
	switch m {
	case Drawing:
		return "drawing"
	case Erasing:
		return "erasing"
	default:
		return "idle"
	}
}

// MarshalText lets modes appear by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// State is carried from one frame to the next. The zero value is Idle.
type State struct {
	Mode Mode
	// Last is the previous position of the active mode. Meaningless when Idle.
	Last r2.Vec
}

// Input is everything ProcessFrame needs for one frame.
type Input struct {
	// Hand is the first detected hand, or nil when none was detected.
	Hand       *detector.HandLandmarks
	Width      int
	Height     int
	Classifier gesture.Classifier
	// Color is the stroke color at the moment of processing.
	Color color.Color
	Debug bool
}

// Result reports what ProcessFrame saw, for diagnostics and broadcasting.
type Result struct {
	Pose     gesture.Pose
	Metrics  gesture.Metrics
	HasHand  bool
	Segments int
}

// BrushSize returns the drawing width for a palm width.
func BrushSize(palmWidth float64) float64 {
	return math.Max(palmWidth*BrushFactor, MinStrokeWidth)
}

// EraserSize returns the erasing width for a palm width.
func EraserSize(palmWidth float64) float64 {
	return math.Max(palmWidth*EraserFactor, MinStrokeWidth)
}

// ProcessFrame advances the state machine by one frame and returns the next
// state with the render commands for that frame. It has no side effects.
func ProcessFrame(in Input, prev State) (State, []Command, Result) {
	cmds := []Command{ClearOverlay{}}

	if in.Hand == nil {
		return State{Mode: Idle}, cmds, Result{}
	}

	classifier := in.Classifier
	if classifier == nil {
		classifier = gesture.NewFingerExtension()
	}

	metrics := gesture.Measure(in.Hand, in.Width, in.Height)
	pose := classifier.Classify(in.Hand)
	res := Result{Pose: pose, Metrics: metrics, HasHand: true}

	var (
		next   State
		kind   SegmentKind
		pos    r2.Vec
		size   float64
		target Mode
	)

	switch pose {
	case gesture.PosePointing:
		kind, target = Draw, Drawing
		pos = gesture.Pixel(in.Hand, detector.IndexTip, in.Width, in.Height)
		size = BrushSize(metrics.PalmWidth)
	case gesture.PoseOpenPalm:
		kind, target = Erase, Erasing
		pos = gesture.Pixel(in.Hand, detector.MiddleMCP, in.Width, in.Height)
		size = EraserSize(metrics.PalmWidth)
	default:
		// The pointer still follows the fingertip while idle.
		next = State{Mode: Idle}
		cmds = append(cmds, Indicator{
			Kind:   Draw,
			Center: gesture.Pixel(in.Hand, detector.IndexTip, in.Width, in.Height),
			Radius: BrushSize(metrics.PalmWidth) / 2,
			Color:  in.Color,
		})
		return next, appendDebug(cmds, in, res), res
	}

	if prev.Mode == target {
		seg := Segment{
			Kind:  kind,
			From:  prev.Last,
			To:    pos,
			Width: size,
		}
		if kind == Draw {
			seg.Color = in.Color
		}
		cmds = append(cmds, seg)
		res.Segments = 1
	}
	next = State{Mode: target, Last: pos}

	cmds = append(cmds, Indicator{
		Kind:   kind,
		Center: pos,
		Radius: size / 2,
		Color:  in.Color,
	})

	return next, appendDebug(cmds, in, res), res
}

func appendDebug(cmds []Command, in Input, res Result) []Command {
	if !in.Debug {
		return cmds
	}
	return append(cmds, Text{
		At: r2.Vec{X: 10, Y: 20},
		Text: fmt.Sprintf("%s  palm %.0fpx  depth %.2f",
			res.Pose, res.Metrics.PalmWidth, res.Metrics.Depth),
	})
}
