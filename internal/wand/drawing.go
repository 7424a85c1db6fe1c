package wand

import (
	"math"

	"github.com/ironsheep/image-wand/internal/magick"
)

// Point is a vertex of a polygon, polyline or Bezier curve.
type Point = magick.PointInfo

// Drawing is a guarded drawing wand. Primitives are recorded with the
// fill, stroke and stroke width in effect at the time and rendered onto an
// image by Draw.
type Drawing struct {
	res    *Resource
	cfg    *config
	status *StatusTranslator
}

// NewDrawing allocates an empty drawing with a black fill, no stroke and
// a stroke width of one.
func NewDrawing(opts ...Option) (*Drawing, error) {
	cfg := newConfig(opts)
	res, err := cfg.acquire(magick.KindDrawing, cfg.lib.NewDrawingWand)
	if err != nil {
		return nil, err
	}
	return &Drawing{res: res, cfg: cfg, status: cfg.translator()}, nil
}

func (d *Drawing) call(op string, fn func(h magick.Handle) bool) error {
	h, done, err := d.res.Borrow(op)
	if err != nil {
		return err
	}
	defer done()

	ok := fn(h)
	if err := d.status.Verify(op, h, magick.KindDrawing, ok); err != nil {
		return reclassify(err, KindOperation)
	}
	return nil
}

func (d *Drawing) setColor(op string, c *Color, set func(h, pixel magick.Handle) bool) error {
	if c == nil {
		return invalidArgument(op, "nil color")
	}
	ph, done, err := c.borrowFor(op, d.cfg.lib)
	if err != nil {
		return err
	}
	defer done()

	return d.call(op, func(h magick.Handle) bool {
		return set(h, ph)
	})
}

// SetFillColor sets the colour used to fill shapes, points and text.
func (d *Drawing) SetFillColor(c *Color) error {
	return d.setColor("fill_color", c, d.cfg.lib.DrawSetFillColor)
}

// SetStrokeColor sets the outline colour of shapes and lines.
func (d *Drawing) SetStrokeColor(c *Color) error {
	return d.setColor("stroke_color", c, d.cfg.lib.DrawSetStrokeColor)
}

// SetStrokeWidth sets the outline width in pixels.
func (d *Drawing) SetStrokeWidth(width float64) error {
	if !(width >= 0) {
		return invalidArgument("stroke_width", "width %v must not be negative", width)
	}
	return d.call("stroke_width", func(h magick.Handle) bool {
		return d.cfg.lib.DrawSetStrokeWidth(h, width)
	})
}

// SetFontSize sets the point size used by Text.
func (d *Drawing) SetFontSize(size float64) error {
	if !(size > 0) || math.IsInf(size, 0) {
		return invalidArgument("font_size", "size %v must be positive", size)
	}
	return d.call("font_size", func(h magick.Handle) bool {
		return d.cfg.lib.DrawSetFontSize(h, size)
	})
}

// Line records a line from (x0, y0) to (x1, y1).
func (d *Drawing) Line(x0, y0, x1, y1 float64) error {
	return d.call("line", func(h magick.Handle) bool {
		return d.cfg.lib.DrawLine(h, x0, y0, x1, y1)
	})
}

// Rectangle records a rectangle with opposite corners (x0, y0) and (x1, y1).
func (d *Drawing) Rectangle(x0, y0, x1, y1 float64) error {
	return d.call("rectangle", func(h magick.Handle) bool {
		return d.cfg.lib.DrawRectangle(h, x0, y0, x1, y1)
	})
}

// Circle records a circle centred on (ox, oy) passing through (px, py).
func (d *Drawing) Circle(ox, oy, px, py float64) error {
	return d.call("circle", func(h magick.Handle) bool {
		return d.cfg.lib.DrawCircle(h, ox, oy, px, py)
	})
}

// Point records a single pixel in the fill colour.
func (d *Drawing) Point(x, y float64) error {
	return d.call("point", func(h magick.Handle) bool {
		return d.cfg.lib.DrawPoint(h, x, y)
	})
}

// Text records a string whose baseline starts at (x, y).
func (d *Drawing) Text(x, y float64, text string) error {
	return d.call("text", func(h magick.Handle) bool {
		return d.cfg.lib.DrawAnnotation(h, x, y, text)
	})
}

// Ellipse records the part of an ellipse centred on (ox, oy) with radii rx
// and ry that runs from start to end degrees. Use 0 and 360 for a whole
// ellipse.
func (d *Drawing) Ellipse(ox, oy, rx, ry, start, end float64) error {
	if rx < 0 || ry < 0 {
		return invalidArgument("ellipse", "radii %vx%v must not be negative", rx, ry)
	}
	return d.call("ellipse", func(h magick.Handle) bool {
		return d.cfg.lib.DrawEllipse(h, ox, oy, rx, ry, start, end)
	})
}

// Arc records the arc of the ellipse inscribed in the box with corners
// (sx, sy) and (ex, ey), from start to end degrees.
func (d *Drawing) Arc(sx, sy, ex, ey, start, end float64) error {
	return d.call("arc", func(h magick.Handle) bool {
		return d.cfg.lib.DrawArc(h, sx, sy, ex, ey, start, end)
	})
}

func (d *Drawing) path(op string, points []Point, least int, fn func(h magick.Handle, points []magick.PointInfo) bool) error {
	if len(points) < least {
		return invalidArgument(op, "need at least %d points, got %d", least, len(points))
	}
	return d.call(op, func(h magick.Handle) bool {
		return fn(h, points)
	})
}

// Polygon records a closed shape through three or more points.
func (d *Drawing) Polygon(points []Point) error {
	return d.path("polygon", points, 3, d.cfg.lib.DrawPolygon)
}

// Polyline records an open path through two or more points.
func (d *Drawing) Polyline(points []Point) error {
	return d.path("polyline", points, 2, d.cfg.lib.DrawPolyline)
}

// Bezier records one curve from the first point to the last, using the
// points in between as control points.
func (d *Drawing) Bezier(points []Point) error {
	return d.path("bezier", points, 3, d.cfg.lib.DrawBezier)
}

// Draw renders the recorded primitives onto img.
func (d *Drawing) Draw(img *Image) error {
	if img == nil {
		return invalidArgument("draw", "nil image")
	}
	return img.Draw(d)
}

// Clone returns an independent copy including the recorded primitives.
func (d *Drawing) Clone() (*Drawing, error) {
	res, err := d.res.Clone("clone", d.status)
	if err != nil {
		return nil, err
	}
	return &Drawing{res: res, cfg: d.cfg, status: d.status}, nil
}

// Close releases the drawing wand. It is safe to call more than once.
func (d *Drawing) Close() error {
	d.res.Release()
	return nil
}

// Closed reports whether Close has been called.
func (d *Drawing) Closed() bool {
	return d.res.Closed()
}
