package testdata

import (
	"testing"

	"github.com/ayusman/airsketch/internal/detector"
)

func TestRecordings(t *testing.T) {
	names, err := Recordings()
	if err != nil {
		t.Fatalf("Recordings() error = %v", err)
	}
	want := []string{"draw_line", "draw_then_erase", "malformed"}
	if len(names) != len(want) {
		t.Fatalf("Recordings() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Recordings()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestLoadRecording(t *testing.T) {
	rec, err := LoadRecording("malformed")
	if err != nil {
		t.Fatalf("LoadRecording() error = %v", err)
	}

	if rec.Width != 640 || rec.Height != 480 {
		t.Errorf("size = %dx%d", rec.Width, rec.Height)
	}
	if len(rec.Frames) != 4 {
		t.Fatalf("len(Frames) = %d, want 4", len(rec.Frames))
	}
	if err := detector.Validate(&rec.Frames[0][0]); err != nil {
		t.Errorf("frame 0 should be valid: %v", err)
	}
	if rec.Frames[1][0].Missing != 6 {
		t.Errorf("frame 1 Missing = %d, want 6", rec.Frames[1][0].Missing)
	}
}

func TestLoadRecording_Unknown(t *testing.T) {
	if _, err := LoadRecording("nope"); err == nil {
		t.Error("expected error for unknown recording")
	}
}
