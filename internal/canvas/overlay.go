package canvas

import (
	"image"
	"image/color"
	"sync"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/draw"
)

// Eraser indicators are drawn as an outline in this color.
var eraserColor = color.RGBA{R: 255, G: 255, B: 255, A: 200}

// Overlay is the transient layer with the pointer indicator and debug text.
// It is cleared and redrawn every frame.
type Overlay struct {
	mu sync.Mutex
	dc *gg.Context
}

// NewOverlay returns a transparent w x h overlay.
func NewOverlay(w, h int) *Overlay {
	return &Overlay{dc: gg.NewContext(w, h)}
}

// Clear wipes the overlay.
func (o *Overlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dc.SetColor(color.Transparent)
	o.dc.Clear()
}

// Brush draws a filled pointer circle.
func (o *Overlay) Brush(x, y, r float64, c color.Color) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if c == nil {
		c = color.Black
	}
	o.dc.SetColor(c)
	o.dc.DrawCircle(x, y, r)
	o.dc.Fill()
}

// Eraser draws an outlined eraser circle.
func (o *Overlay) Eraser(x, y, r float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dc.SetColor(eraserColor)
	o.dc.SetLineWidth(2)
	o.dc.DrawCircle(x, y, r)
	o.dc.Stroke()
}

// Text draws a label with its baseline at (x, y).
func (o *Overlay) Text(x, y float64, s string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dc.SetColor(color.White)
	o.dc.DrawString(s, x, y)
}

// Image returns a copy of the overlay.
func (o *Overlay) Image() *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()

	src := o.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

// Compose draws background, then the surface, then the overlay, scaling
// the background to the surface size.
func Compose(background image.Image, s *Surface, o *Overlay) *image.RGBA {
	out := image.NewRGBA(s.Bounds())

	if background != nil {
		draw.ApproxBiLinear.Scale(out, out.Bounds(), background, background.Bounds(), draw.Src, nil)
	}
	draw.Draw(out, out.Bounds(), s.Image(), image.Point{}, draw.Over)
	if o != nil {
		draw.Draw(out, out.Bounds(), o.Image(), image.Point{}, draw.Over)
	}

	return out
}
