// Package gesture turns one frame's hand landmarks into size metrics and a
// coarse drawing pose.
package gesture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/airsketch/internal/detector"
)

// DepthScale maps palm area as a fraction of the frame onto [0,1]. Palms
// covering more than 1/DepthScale of the frame read as 1.
const DepthScale = 50000.0

// Metrics describes the apparent size of a hand in pixels for one frame.
type Metrics struct {
	PalmWidth  float64 `json:"palm_width"`
	PalmHeight float64 `json:"palm_height"`
	HandLength float64 `json:"hand_length"`
	PalmSize   float64 `json:"palm_size"`
	// Depth is a monocular distance proxy in [0,1]. A larger apparent palm
	// gives a larger value.
	Depth float64 `json:"depth"`
}

// Pixel converts landmark i of hand to pixel coordinates in a w x h frame.
// X and Y are scaled independently.
func Pixel(hand *detector.HandLandmarks, i int, w, h int) r2.Vec {
	p := hand.Points[i]
	return r2.Vec{X: p.X * float64(w), Y: p.Y * float64(h)}
}

// Distance is the pixel distance between landmarks a and b.
func Distance(hand *detector.HandLandmarks, a, b int, w, h int) float64 {
	return r2.Norm(r2.Sub(Pixel(hand, a, w, h), Pixel(hand, b, w, h)))
}

// Measure computes Metrics for hand in a w x h frame. The hand must be
// non-nil; callers check for absent samples first.
func Measure(hand *detector.HandLandmarks, w, h int) Metrics {
	m := Metrics{
		PalmWidth:  Distance(hand, detector.PinkyMCP, detector.IndexMCP, w, h),
		PalmHeight: Distance(hand, detector.Wrist, detector.MiddleMCP, w, h),
		HandLength: Distance(hand, detector.Wrist, detector.MiddleTip, w, h),
	}
	m.PalmSize = m.PalmWidth * m.PalmHeight

	area := float64(w) * float64(h)
	if area > 0 {
		m.Depth = clamp(m.PalmSize/area*DepthScale, 0, 1)
	}

	return m
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
