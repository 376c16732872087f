package gesture

import "github.com/ayusman/airsketch/internal/detector"

// Debounce suppresses pose flicker. A new pose is reported only after the
// wrapped classifier has returned it on Frames consecutive calls; until then
// the previously reported pose is kept.
//
// Debounce is stateful and must be driven by a single frame loop.
type Debounce struct {
	inner   Classifier
	frames  int
	current Pose
	pending Pose
	streak  int
}

// NewDebounce wraps inner. frames <= 1 disables debouncing.
func NewDebounce(inner Classifier, frames int) *Debounce {
	if frames < 1 {
		frames = 1
	}
	return &Debounce{inner: inner, frames: frames}
}

// Classify implements Classifier.
func (d *Debounce) Classify(hand *detector.HandLandmarks) Pose {
	p := d.inner.Classify(hand)

	if p == d.current {
		d.streak = 0
		return d.current
	}

	if p == d.pending {
		d.streak++
	} else {
		d.pending = p
		d.streak = 1
	}

	if d.streak >= d.frames {
		d.current = p
		d.streak = 0
	}

	return d.current
}

// Reset forgets any held pose.
func (d *Debounce) Reset() {
	d.current = PoseNone
	d.pending = PoseNone
	d.streak = 0
}
