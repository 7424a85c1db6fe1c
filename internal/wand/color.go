package wand

import (
	"image/color"

	"github.com/ironsheep/image-wand/internal/magick"
)

// Color is a guarded pixel wand holding one colour.
type Color struct {
	res    *Resource
	cfg    *config
	status *StatusTranslator
}

// NewColor parses spec into a new pixel wand. Accepted forms include
// "#rgb", "#rrggbb", "#rrggbbaa", SVG colour names and "transparent".
func NewColor(spec string, opts ...Option) (*Color, error) {
	cfg := newConfig(opts)
	res, err := cfg.acquire(magick.KindPixel, cfg.lib.NewPixelWand)
	if err != nil {
		return nil, err
	}

	c := &Color{res: res, cfg: cfg, status: cfg.translator()}
	h, done, err := res.Borrow("color")
	if err != nil {
		res.Release()
		return nil, err
	}
	ok := cfg.lib.PixelSetColor(h, spec)
	err = c.status.Verify("color", h, magick.KindPixel, ok)
	done()
	if err != nil {
		res.Release()
		return nil, reclassify(err, KindInvalidArgument)
	}
	return c, nil
}

// NRGBA returns the colour as a non-premultiplied value.
func (c *Color) NRGBA() (color.NRGBA, error) {
	h, done, err := c.res.Borrow("color")
	if err != nil {
		return color.NRGBA{}, err
	}
	defer done()

	v := c.cfg.lib.PixelGetColor(h)
	if err := c.status.Check("color", h, magick.KindPixel); err != nil {
		return color.NRGBA{}, reclassify(err, KindOperation)
	}
	return v, nil
}

// Hex returns the colour as "#rrggbb", or "#rrggbbaa" when translucent.
func (c *Color) Hex() (string, error) {
	h, done, err := c.res.Borrow("color")
	if err != nil {
		return "", err
	}
	defer done()

	s := c.cfg.lib.PixelGetColorAsString(h)
	if err := c.status.Check("color", h, magick.KindPixel); err != nil {
		return "", reclassify(err, KindOperation)
	}
	return s, nil
}

func (c *Color) String() string {
	s, err := c.Hex()
	if err != nil {
		return "<closed color>"
	}
	return s
}

// Clone returns an independent copy.
func (c *Color) Clone() (*Color, error) {
	res, err := c.res.Clone("clone", c.status)
	if err != nil {
		return nil, err
	}
	return &Color{res: res, cfg: c.cfg, status: c.status}, nil
}

// Close releases the pixel wand. It is safe to call more than once.
func (c *Color) Close() error {
	c.res.Release()
	return nil
}

// Closed reports whether Close has been called.
func (c *Color) Closed() bool {
	return c.res.Closed()
}

// borrowFor pins the colour's handle for use by another wand of the same
// library. A nil Color yields handle 0, which the library treats as
// transparent.
func (c *Color) borrowFor(op string, lib magick.Library) (magick.Handle, func(), error) {
	if c == nil {
		return 0, func() {}, nil
	}
	if c.cfg.lib != lib {
		return 0, func() {}, invalidArgument(op, "color belongs to a different library")
	}
	return c.res.Borrow(op)
}
