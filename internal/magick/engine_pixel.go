package magick

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

type pixelWand struct {
	exceptionQueue
	c color.NRGBA
}

func (w *pixelWand) status() *exceptionQueue { return &w.exceptionQueue }

func (w *pixelWand) clone() wand {
	return &pixelWand{c: w.c}
}

func (e *Engine) pixel(h Handle) *pixelWand {
	w, _ := e.lookup(h, KindPixel).(*pixelWand)
	return w
}

// NewPixelWand allocates a pixel wand holding opaque black.
func (e *Engine) NewPixelWand() Handle {
	return e.insert(KindPixel, &pixelWand{c: color.NRGBA{A: 0xff}})
}

// ClonePixelWand copies a pixel wand.
func (e *Engine) ClonePixelWand(h Handle) Handle {
	return e.cloneOf(h, KindPixel)
}

// DestroyPixelWand releases a pixel wand.
func (e *Engine) DestroyPixelWand(h Handle) {
	e.remove(h, KindPixel)
}

// IsPixelWand reports whether h is a live pixel wand.
func (e *Engine) IsPixelWand(h Handle) bool {
	return e.pixel(h) != nil
}

// PixelGetException pops the oldest queued exception.
func (e *Engine) PixelGetException(h Handle) Exception {
	return e.getException(h, KindPixel)
}

// PixelClearException discards all queued exceptions.
func (e *Engine) PixelClearException(h Handle) {
	e.clearException(h, KindPixel)
}

// PixelSetColor parses spec and stores it in the wand. Accepted forms are
// "#rgb", "#rrggbb", "#rrggbbaa", SVG colour names and "none"/"transparent".
func (e *Engine) PixelSetColor(h Handle, spec string) bool {
	w := e.pixel(h)
	if w == nil {
		return false
	}
	c, err := ParseColor(spec)
	if err != nil {
		return w.throw(OptionError, err.Error())
	}
	w.c = c
	return true
}

// PixelGetColor returns the wand's colour.
func (e *Engine) PixelGetColor(h Handle) color.NRGBA {
	w := e.pixel(h)
	if w == nil {
		return color.NRGBA{}
	}
	return w.c
}

// PixelGetColorAsString formats the wand's colour as "#rrggbb", with an
// alpha suffix when the colour is not fully opaque.
func (e *Engine) PixelGetColorAsString(h Handle) string {
	w := e.pixel(h)
	if w == nil {
		return ""
	}
	return FormatColor(w.c)
}

// ParseColor converts a colour specification to a non-premultiplied colour.
func ParseColor(spec string) (color.NRGBA, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	switch s {
	case "":
		return color.NRGBA{}, fmt.Errorf("UnrecognizedColor `%s'", spec)
	case "none", "transparent":
		return color.NRGBA{}, nil
	}

	if strings.HasPrefix(s, "#") {
		var alpha uint8 = 0xff
		switch len(s) {
		case 4, 7:
		case 9:
			a, err := strconv.ParseUint(s[7:], 16, 8)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("UnrecognizedColor `%s'", spec)
			}
			alpha = uint8(a)
			s = s[:7]
		default:
			return color.NRGBA{}, fmt.Errorf("UnrecognizedColor `%s'", spec)
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("UnrecognizedColor `%s'", spec)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
	}

	if named, ok := colornames.Map[s]; ok {
		return color.NRGBA{R: named.R, G: named.G, B: named.B, A: named.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("UnrecognizedColor `%s'", spec)
}

// FormatColor is the inverse of ParseColor for hex forms.
func FormatColor(c color.NRGBA) string {
	hex := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
	if c.A == 0xff {
		return hex
	}
	return fmt.Sprintf("%s%02x", hex, c.A)
}
