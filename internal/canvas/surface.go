// Package canvas holds the raster targets the stroke commands are painted on:
// the persistent drawing surface and the per-frame overlay.
package canvas

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/draw"

	"github.com/ayusman/airsketch/internal/stroke"
)

// Surface is the persistent drawing. It only changes through Stroke, Erase
// and Clear, and is read back only for export and preview.
type Surface struct {
	mu   sync.Mutex
	img  *image.RGBA
	dc   *gg.Context
	mask *gg.Context
}

// NewSurface returns a fully transparent w x h surface.
func NewSurface(w, h int) *Surface {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return &Surface{
		img:  img,
		dc:   gg.NewContextForRGBA(img),
		mask: gg.NewContext(w, h),
	}
}

// Bounds returns the surface rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Stroke paints seg with normal compositing.
func (s *Surface) Stroke(seg stroke.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := seg.Color
	if c == nil {
		c = color.Black
	}
	s.dc.SetColor(c)
	line(s.dc, seg)
}

// Erase clears the pixels covered by seg.
func (s *Surface) Erase(seg stroke.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mask.SetColor(color.Transparent)
	s.mask.Clear()
	s.mask.SetColor(color.White)
	line(s.mask, seg)

	r := segmentBounds(seg).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}
	// Src with a transparent source keeps dst * (1 - mask).
	draw.DrawMask(s.img, r, image.Transparent, image.Point{}, s.mask.AsMask(), r.Min, draw.Src)
}

// Clear wipes all ink.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// Image returns a copy of the current surface.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// EncodePNG writes the surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dc.EncodePNG(w)
}

// Snapshot returns the PNG encoding of the surface.
func (s *Surface) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// line draws a round-capped segment. Zero-length segments become a dot,
// since a round cap on an empty path renders nothing.
func line(dc *gg.Context, seg stroke.Segment) {
	if seg.From == seg.To {
		dc.DrawCircle(seg.From.X, seg.From.Y, seg.Width/2)
		dc.Fill()
		return
	}

	dc.SetLineWidth(seg.Width)
	dc.SetLineCapRound()
	dc.DrawLine(seg.From.X, seg.From.Y, seg.To.X, seg.To.Y)
	dc.Stroke()
}

func segmentBounds(seg stroke.Segment) image.Rectangle {
	pad := seg.Width/2 + 1
	return image.Rect(
		int(math.Floor(math.Min(seg.From.X, seg.To.X)-pad)),
		int(math.Floor(math.Min(seg.From.Y, seg.To.Y)-pad)),
		int(math.Ceil(math.Max(seg.From.X, seg.To.X)+pad)),
		int(math.Ceil(math.Max(seg.From.Y, seg.To.Y)+pad)),
	)
}
