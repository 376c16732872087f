package gesture

import "github.com/ayusman/airsketch/internal/detector"

// Pose is the coarse hand pose that drives the canvas.
type Pose int

const (
	// PoseNone covers no hand and every unrecognized configuration.
	PoseNone Pose = iota
	// PosePointing is the index finger alone extended. It draws.
	PosePointing
	// PoseOpenPalm is all four fingers extended. It erases.
	PoseOpenPalm
)

// String returns the wire name of the pose.
func (p Pose) String() string {
	switch p {
	case PosePointing:
		return "pointing"
	case PoseOpenPalm:
		return "open_palm"
	default:
		return "none"
	}
}

// MarshalText lets poses appear by name in JSON.
func (p Pose) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Classifier maps one hand to a Pose. A nil hand is PoseNone.
type Classifier interface {
	Classify(hand *detector.HandLandmarks) Pose
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(hand *detector.HandLandmarks) Pose

// Classify calls f(hand).
func (f ClassifierFunc) Classify(hand *detector.HandLandmarks) Pose {
	return f(hand)
}

// Finger names the landmark pair used for an extension test.
type Finger struct {
	Tip   int
	Joint int
}

// FingerMap holds the comparison landmarks for the four long fingers.
type FingerMap struct {
	Index  Finger
	Middle Finger
	Ring   Finger
	Pinky  Finger
}

// DefaultFingerMap compares each fingertip with its DIP joint, the
// neighbouring landmark on the same finger.
var DefaultFingerMap = FingerMap{
	Index:  Finger{Tip: detector.IndexTip, Joint: detector.IndexDIP},
	Middle: Finger{Tip: detector.MiddleTip, Joint: detector.MiddleDIP},
	Ring:   Finger{Tip: detector.RingTip, Joint: detector.RingDIP},
	Pinky:  Finger{Tip: detector.PinkyTip, Joint: detector.PinkyDIP},
}

// Extended reports whether finger's tip sits above its joint in the image.
// Image Y grows downward, so this assumes an upright hand.
func Extended(hand *detector.HandLandmarks, f Finger) bool {
	return hand.Points[f.Tip].Y < hand.Points[f.Joint].Y
}

// FingerExtension classifies by which fingers are extended. The thumb is
// never examined.
type FingerExtension struct {
	Fingers FingerMap
}

// NewFingerExtension returns the default classifier.
func NewFingerExtension() FingerExtension {
	return FingerExtension{Fingers: DefaultFingerMap}
}

// Classify implements Classifier.
func (c FingerExtension) Classify(hand *detector.HandLandmarks) Pose {
	if hand == nil {
		return PoseNone
	}

	index := Extended(hand, c.Fingers.Index)
	middle := Extended(hand, c.Fingers.Middle)
	ring := Extended(hand, c.Fingers.Ring)
	pinky := Extended(hand, c.Fingers.Pinky)

	switch {
	case index && !middle && !ring && !pinky:
		return PosePointing
	case index && middle && ring && pinky:
		return PoseOpenPalm
	default:
		return PoseNone
	}
}
