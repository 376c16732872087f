package canvas

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync/atomic"
)

// DefaultColor is the initial stroke color.
var DefaultColor = color.RGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}

// ErrInvalidColor is returned by ParseHex for malformed input.
var ErrInvalidColor = errors.New("invalid color")

// Palette holds the current stroke color. It is safe for concurrent use; the
// frame loop reads it once per frame while the UI shell may set it at any time.
type Palette struct {
	v atomic.Value // color.RGBA
}

// NewPalette returns a palette set to c.
func NewPalette(c color.RGBA) *Palette {
	p := &Palette{}
	p.Set(c)
	return p
}

// Set replaces the current color.
func (p *Palette) Set(c color.RGBA) {
	p.v.Store(c)
}

// Color returns the current color.
func (p *Palette) Color() color.RGBA {
	c, ok := p.v.Load().(color.RGBA)
	if !ok {
		return DefaultColor
	}
	return c
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
