// Package testdata holds recorded landmark streams for pipeline tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/airsketch/internal/detector"
)

//go:embed landmarks/*.json
var landmarksFS embed.FS

// Recording is a detector output stream captured frame by frame.
type Recording struct {
	Description string
	Width       int
	Height      int
	// Frames holds the hands reported for each frame, possibly none.
	Frames [][]detector.HandLandmarks
}

type recordedHand struct {
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
	Points     []detector.Point3D `json:"points"`
}

type recordingFile struct {
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Frames      []struct {
		Hands []recordedHand `json:"hands"`
	} `json:"frames"`
}

// LoadRecording loads landmarks/<name>.json. Hands recorded with fewer than
// 21 points come back with Missing set, as the live detector reports them.
func LoadRecording(name string) (*Recording, error) {
	data, err := landmarksFS.ReadFile(path.Join("landmarks", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}

	var f recordingFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", name, err)
	}

	rec := &Recording{
		Description: f.Description,
		Width:       f.Width,
		Height:      f.Height,
		Frames:      make([][]detector.HandLandmarks, len(f.Frames)),
	}
	for i, frame := range f.Frames {
		for _, h := range frame.Hands {
			rec.Frames[i] = append(rec.Frames[i], detector.FromPoints(h.Points, h.Handedness, h.Score))
		}
	}

	return rec, nil
}

// Recordings lists the available recording names.
func Recordings() ([]string, error) {
	entries, err := landmarksFS.ReadDir("landmarks")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
