// Package detector provides hand landmark types and the detector interface
// that feeds the drawing pipeline.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedSample is returned by Validate for hands that cannot be measured.
var ErrMalformedSample = errors.New("malformed landmark sample")

// Point3D is a landmark in normalized frame coordinates. X and Y are in
// [0,1] relative to frame width and height; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`

	// Missing is the number of landmarks the detector failed to report.
	// Unreported points are left at the zero value.
	Missing int `json:"-"`
}

// Validate reports whether a hand can be measured and classified.
func Validate(h *HandLandmarks) error {
	if h == nil {
		return fmt.Errorf("%w: no hand", ErrMalformedSample)
	}
	if h.Missing > 0 {
		return fmt.Errorf("%w: %d of %d landmarks", ErrMalformedSample, NumLandmarks-h.Missing, NumLandmarks)
	}
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedSample, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FromPoints builds a hand from a detector point list. Lists shorter than
// NumLandmarks are recorded in Missing; extra points are ignored.
func FromPoints(points []Point3D, handedness string, score float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}

	n := copy(h.Points[:], points)
	h.Missing = NumLandmarks - n

	return h
}
