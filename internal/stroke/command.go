package stroke

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// Command is one rendering instruction produced by ProcessFrame.
type Command interface {
	command()
}

// SegmentKind selects the compositing of a committed segment.
type SegmentKind int

const (
	// Draw paints ink over the surface.
	Draw SegmentKind = iota
	// Erase clears the surface under the segment.
	Erase
)

func (k SegmentKind) String() string {
	if k == Erase {
		return "erase"
	}
	return "draw"
}

// Segment is a round-capped line committed to the persistent surface.
type Segment struct {
	Kind  SegmentKind
	From  r2.Vec
	To    r2.Vec
	Width float64
	// Color is unused for Erase segments.
	Color color.Color
}

// ClearOverlay wipes the transient overlay. It is emitted first on every frame.
type ClearOverlay struct{}

// Indicator is the pointer or eraser circle drawn on the overlay.
type Indicator struct {
	Kind   SegmentKind
	Center r2.Vec
	Radius float64
	Color  color.Color
}

// Text is a debug label drawn on the overlay.
type Text struct {
	At   r2.Vec
	Text string
}

func (Segment) command()      {}
func (ClearOverlay) command() {}
func (Indicator) command()    {}
func (Text) command()         {}
