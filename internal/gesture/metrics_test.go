package gesture

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ayusman/airsketch/internal/detector"
)

const epsilon = 1e-9

func TestMeasure_PalmWidth(t *testing.T) {
	hand := detector.HandLandmarks{}
	hand.Points[detector.PinkyMCP] = detector.Point3D{X: 0.6, Y: 0.5}
	hand.Points[detector.IndexMCP] = detector.Point3D{X: 0.4, Y: 0.5}

	m := Measure(&hand, 1000, 1000)

	if math.Abs(m.PalmWidth-200) > epsilon {
		t.Errorf("PalmWidth = %f, want 200", m.PalmWidth)
	}
}

func TestMeasure_ScalesAxesIndependently(t *testing.T) {
	hand := detector.HandLandmarks{}
	hand.Points[detector.Wrist] = detector.Point3D{X: 0.5, Y: 0.9}
	hand.Points[detector.MiddleMCP] = detector.Point3D{X: 0.5, Y: 0.6}
	hand.Points[detector.MiddleTip] = detector.Point3D{X: 0.8, Y: 0.5}

	m := Measure(&hand, 640, 480)

	// 0.3 of 480 pixels
	if math.Abs(m.PalmHeight-144) > epsilon {
		t.Errorf("PalmHeight = %f, want 144", m.PalmHeight)
	}

	wantLength := math.Hypot(0.3*640, 0.4*480)
	if math.Abs(m.HandLength-wantLength) > epsilon {
		t.Errorf("HandLength = %f, want %f", m.HandLength, wantLength)
	}
}

func TestMeasure_PalmSizeAndDepth(t *testing.T) {
	hand := detector.HandLandmarks{}
	hand.Points[detector.PinkyMCP] = detector.Point3D{X: 0.45, Y: 0.5}
	hand.Points[detector.IndexMCP] = detector.Point3D{X: 0.55, Y: 0.5}
	hand.Points[detector.Wrist] = detector.Point3D{X: 0.5, Y: 0.6}
	hand.Points[detector.MiddleMCP] = detector.Point3D{X: 0.5, Y: 0.5}

	m := Measure(&hand, 100, 100)

	if math.Abs(m.PalmSize-100) > epsilon {
		t.Errorf("PalmSize = %f, want 100", m.PalmSize)
	}
	// 100 / 10000 * 50000 = 500, clamped to 1
	if m.Depth != 1 {
		t.Errorf("Depth = %f, want 1", m.Depth)
	}

	small := Measure(&hand, 1, 1)
	// palm of 0.1 x 0.1 in a 1x1 frame: 0.01 * 50000 clamps too
	if small.Depth != 1 {
		t.Errorf("Depth = %f, want 1", small.Depth)
	}
}

func TestMeasure_DepthIsMonotonic(t *testing.T) {
	hand := func(span float64) detector.HandLandmarks {
		h := detector.HandLandmarks{}
		h.Points[detector.PinkyMCP] = detector.Point3D{X: 0.5 - span/2, Y: 0.5}
		h.Points[detector.IndexMCP] = detector.Point3D{X: 0.5 + span/2, Y: 0.5}
		h.Points[detector.Wrist] = detector.Point3D{X: 0.5, Y: 0.5 + span}
		h.Points[detector.MiddleMCP] = detector.Point3D{X: 0.5, Y: 0.5}
		return h
	}

	prev := -1.0
	for _, span := range []float64{0.0005, 0.001, 0.002, 0.004} {
		h := hand(span)
		d := Measure(&h, 640, 480).Depth
		if d < prev {
			t.Errorf("span %f: depth %f decreased from %f", span, d, prev)
		}
		prev = d
	}
}

func TestMeasure_DegenerateSample(t *testing.T) {
	var hand detector.HandLandmarks

	tests := []struct {
		name string
		w, h int
	}{
		{name: "all zero landmarks", w: 640, h: 480},
		{name: "zero sized frame", w: 0, h: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Measure(&hand, tt.w, tt.h)
			if m.PalmWidth != 0 || m.PalmHeight != 0 || m.PalmSize != 0 {
				t.Errorf("expected zero metrics, got %+v", m)
			}
			if m.Depth != 0 {
				t.Errorf("Depth = %f, want 0", m.Depth)
			}
		})
	}
}

func TestMeasure_RandomSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	pairs := [][2]int{
		{detector.PinkyMCP, detector.IndexMCP},
		{detector.Wrist, detector.MiddleMCP},
		{detector.Wrist, detector.MiddleTip},
	}

	for i := 0; i < 500; i++ {
		var hand detector.HandLandmarks
		for j := range hand.Points {
			hand.Points[j] = detector.Point3D{X: rng.Float64(), Y: rng.Float64(), Z: rng.NormFloat64()}
		}
		w, h := 1+rng.Intn(1920), 1+rng.Intn(1080)

		for _, p := range pairs {
			ab := Distance(&hand, p[0], p[1], w, h)
			ba := Distance(&hand, p[1], p[0], w, h)
			if math.Abs(ab-ba) > epsilon {
				t.Fatalf("sample %d: distance(%d,%d)=%f != distance(%d,%d)=%f", i, p[0], p[1], ab, p[1], p[0], ba)
			}
			if ab < 0 {
				t.Fatalf("sample %d: negative distance %f", i, ab)
			}
		}

		m := Measure(&hand, w, h)
		if m.Depth < 0 || m.Depth > 1 {
			t.Fatalf("sample %d: depth %f out of range", i, m.Depth)
		}
	}
}
