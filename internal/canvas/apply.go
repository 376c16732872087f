package canvas

import "github.com/ayusman/airsketch/internal/stroke"

// Counts tallies what Apply committed to the surface.
type Counts struct {
	Drawn  int
	Erased int
}

// Apply renders cmds in order. A nil overlay skips overlay commands.
func Apply(s *Surface, o *Overlay, cmds []stroke.Command) Counts {
	var n Counts

	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case stroke.Segment:
			if c.Kind == stroke.Erase {
				s.Erase(c)
				n.Erased++
			} else {
				s.Stroke(c)
				n.Drawn++
			}
		case stroke.ClearOverlay:
			if o != nil {
				o.Clear()
			}
		case stroke.Indicator:
			if o == nil {
				continue
			}
			if c.Kind == stroke.Erase {
				o.Eraser(c.Center.X, c.Center.Y, c.Radius)
			} else {
				o.Brush(c.Center.X, c.Center.Y, c.Radius, c.Color)
			}
		case stroke.Text:
			if o != nil {
				o.Text(c.At.X, c.At.Y, c.Text)
			}
		}
	}

	return n
}
