package magick

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type drawOp uint8

const (
	opLine drawOp = iota
	opRectangle
	opCircle
	opPoint
	opText
	opEllipse
	opArc
	opPolygon
	opPolyline
	opBezier
)

// DefaultFontSize is the point size of the built-in face. Text recorded at
// another size is scaled from it.
const DefaultFontSize = 13

// curveSteps is the number of segments used to flatten arcs and curves.
const curveSteps = 64

// drawCmd is one recorded primitive together with the style that was
// current when it was recorded.
type drawCmd struct {
	op          drawOp
	args        [6]float64
	points      []PointInfo
	text        string
	fill        color.NRGBA
	stroke      color.NRGBA
	strokeWidth float64
	fontSize    float64
}

// drawingWand records primitives; they are rasterised by MagickDrawImage.
type drawingWand struct {
	exceptionQueue
	fill        color.NRGBA
	stroke      color.NRGBA
	strokeWidth float64
	fontSize    float64
	cmds        []drawCmd
}

func (w *drawingWand) status() *exceptionQueue { return &w.exceptionQueue }

func (w *drawingWand) clone() wand {
	c := *w
	c.exceptionQueue = exceptionQueue{}
	c.cmds = append([]drawCmd(nil), w.cmds...)
	return &c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (w *drawingWand) record(op drawOp, args []float64, points []PointInfo, text string) bool {
	cmd := drawCmd{
		op:          op,
		text:        text,
		fill:        w.fill,
		stroke:      w.stroke,
		strokeWidth: w.strokeWidth,
		fontSize:    w.fontSize,
	}
	for i, v := range args {
		if !finite(v) {
			return w.throw(DrawError, fmt.Sprintf("NonconformingDrawingPrimitiveDefinition `%v'", args))
		}
		cmd.args[i] = v
	}
	for _, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return w.throw(DrawError, fmt.Sprintf("NonconformingDrawingPrimitiveDefinition `%v'", points))
		}
	}
	if points != nil {
		cmd.points = append([]PointInfo(nil), points...)
	}
	w.cmds = append(w.cmds, cmd)
	return true
}

// recordPath records a path primitive, rejecting one with too few points.
func (w *drawingWand) recordPath(op drawOp, name string, points []PointInfo, least int) bool {
	if len(points) < least {
		return w.throw(DrawError, fmt.Sprintf("NonconformingDrawingPrimitiveDefinition `%s' needs %d points, got %d", name, least, len(points)))
	}
	return w.record(op, nil, points, "")
}

func (e *Engine) drawing(h Handle) *drawingWand {
	w, _ := e.lookup(h, KindDrawing).(*drawingWand)
	return w
}

// NewDrawingWand allocates a drawing wand with a black fill, no stroke, a
// stroke width of one and the default font size.
func (e *Engine) NewDrawingWand() Handle {
	return e.insert(KindDrawing, &drawingWand{
		fill:        color.NRGBA{A: 0xff},
		strokeWidth: 1,
		fontSize:    DefaultFontSize,
	})
}

// CloneDrawingWand copies a drawing wand with its recorded primitives.
func (e *Engine) CloneDrawingWand(h Handle) Handle {
	return e.cloneOf(h, KindDrawing)
}

// DestroyDrawingWand releases a drawing wand.
func (e *Engine) DestroyDrawingWand(h Handle) {
	e.remove(h, KindDrawing)
}

// IsDrawingWand reports whether h is a live drawing wand.
func (e *Engine) IsDrawingWand(h Handle) bool {
	return e.drawing(h) != nil
}

// DrawGetException pops the oldest queued exception.
func (e *Engine) DrawGetException(h Handle) Exception {
	return e.getException(h, KindDrawing)
}

// DrawClearException discards all queued exceptions.
func (e *Engine) DrawClearException(h Handle) {
	e.clearException(h, KindDrawing)
}

// DrawSetFillColor copies the pixel wand's colour into the fill style.
func (e *Engine) DrawSetFillColor(h Handle, pixel Handle) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	p := e.pixel(pixel)
	if p == nil {
		return w.throw(WandError, "InvalidPixelWand `fill'")
	}
	w.fill = p.c
	return true
}

// DrawSetStrokeColor copies the pixel wand's colour into the stroke style.
func (e *Engine) DrawSetStrokeColor(h Handle, pixel Handle) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	p := e.pixel(pixel)
	if p == nil {
		return w.throw(WandError, "InvalidPixelWand `stroke'")
	}
	w.stroke = p.c
	return true
}

// DrawSetStrokeWidth sets the stroke width for subsequent primitives.
func (e *Engine) DrawSetStrokeWidth(h Handle, width float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	if math.IsNaN(width) || width < 0 {
		return w.throw(OptionError, fmt.Sprintf("InvalidArgument `stroke-width %v'", width))
	}
	w.strokeWidth = width
	return true
}

// DrawSetFontSize sets the point size for subsequent annotations.
func (e *Engine) DrawSetFontSize(h Handle, size float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	if !finite(size) || size <= 0 {
		return w.throw(OptionError, fmt.Sprintf("InvalidArgument `pointsize %v'", size))
	}
	w.fontSize = size
	return true
}

// DrawLine records a line from (x0, y0) to (x1, y1).
func (e *Engine) DrawLine(h Handle, x0, y0, x1, y1 float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.record(opLine, []float64{x0, y0, x1, y1}, nil, "")
}

// DrawRectangle records a rectangle with corners (x0, y0) and (x1, y1).
func (e *Engine) DrawRectangle(h Handle, x0, y0, x1, y1 float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.record(opRectangle, []float64{x0, y0, x1, y1}, nil, "")
}

// DrawCircle records a circle centred on (ox, oy) passing through (px, py).
func (e *Engine) DrawCircle(h Handle, ox, oy, px, py float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.record(opCircle, []float64{ox, oy, px, py}, nil, "")
}

// DrawPoint records a single pixel in the fill colour.
func (e *Engine) DrawPoint(h Handle, x, y float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.record(opPoint, []float64{x, y}, nil, "")
}

// DrawAnnotation records text whose baseline starts at (x, y). Text is set
// in a fixed 7x13 face using the fill colour.
func (e *Engine) DrawAnnotation(h Handle, x, y float64, text string) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	if text == "" {
		w.push(Exception{Type: DrawWarning, Reason: "empty annotation ignored"})
		return true
	}
	return w.record(opText, []float64{x, y}, nil, text)
}

// DrawEllipse records the part of an ellipse centred on (ox, oy) with radii
// rx and ry that runs from start to end degrees, clockwise from the positive
// x axis. A sweep of 360 degrees or more draws the whole ellipse.
func (e *Engine) DrawEllipse(h Handle, ox, oy, rx, ry, start, end float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.record(opEllipse, []float64{ox, oy, rx, ry, start, end}, nil, "")
}

// DrawArc records the arc of the ellipse inscribed in the box with corners
// (sx, sy) and (ex, ey) that runs from start to end degrees.
func (e *Engine) DrawArc(h Handle, sx, sy, ex, ey, start, end float64) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.record(opArc, []float64{sx, sy, ex, ey, start, end}, nil, "")
}

// DrawPolygon records a closed path through points.
func (e *Engine) DrawPolygon(h Handle, points []PointInfo) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.recordPath(opPolygon, "polygon", points, 3)
}

// DrawPolyline records an open path through points.
func (e *Engine) DrawPolyline(h Handle, points []PointInfo) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.recordPath(opPolyline, "polyline", points, 2)
}

// DrawBezier records a single Bezier curve whose first and last points are
// the end points and whose remaining points are control points.
func (e *Engine) DrawBezier(h Handle, points []PointInfo) bool {
	w := e.drawing(h)
	if w == nil {
		return false
	}
	return w.recordPath(opBezier, "bezier", points, 3)
}

// MagickDrawImage rasterises every primitive recorded on the drawing wand
// onto the magick wand's image. Failures are queued on the magick wand.
func (e *Engine) MagickDrawImage(h Handle, drawing Handle) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	d := e.drawing(drawing)
	if d == nil {
		return w.throw(WandError, "InvalidDrawingWand `MagickDrawImage'")
	}

	img := w.img
	for _, cmd := range d.cmds {
		var err error
		switch cmd.op {
		case opPoint:
			x, y := int(math.Round(cmd.args[0])), int(math.Round(cmd.args[1]))
			if image.Pt(x, y).In(img.Bounds()) {
				img.SetNRGBA(x, y, cmd.fill)
			}
		case opText:
			annotate(img, cmd)
		default:
			img, err = rasterize(img, cmd)
		}
		if err != nil {
			return w.throw(DrawError, fmt.Sprintf("unable to draw primitive: %v", err))
		}
	}
	w.img = img
	return true
}

// annotate sets text in the built-in face, scaled to the recorded font size.
func annotate(img *image.NRGBA, cmd drawCmd) {
	x, y := int(math.Round(cmd.args[0])), int(math.Round(cmd.args[1]))
	face := basicfont.Face7x13
	if cmd.fontSize == DefaultFontSize {
		drawer := &font.Drawer{Dst: img, Src: image.NewUniform(cmd.fill), Face: face, Dot: fixed.P(x, y)}
		drawer.DrawString(cmd.text)
		return
	}

	glyphs := image.NewNRGBA(image.Rect(0, 0, font.MeasureString(face, cmd.text).Ceil(), face.Height))
	drawer := &font.Drawer{Dst: glyphs, Src: image.NewUniform(cmd.fill), Face: face, Dot: fixed.P(0, face.Ascent)}
	drawer.DrawString(cmd.text)

	scale := cmd.fontSize / DefaultFontSize
	width := int(math.Max(1, math.Round(float64(glyphs.Bounds().Dx())*scale)))
	height := int(math.Max(1, math.Round(float64(face.Height)*scale)))
	scaled := imaging.Resize(glyphs, width, height, imaging.NearestNeighbor)

	top := y - int(math.Round(float64(face.Ascent)*scale))
	draw.Draw(img, image.Rect(x, top, x+width, top+height), scaled, image.Point{}, draw.Over)
}

// ellipsePath adds the arc of an ellipse as a flattened open path.
func ellipsePath(dc *gg.Context, ox, oy, rx, ry, start, end float64) {
	for i := 0; i <= curveSteps; i++ {
		theta := (start + (end-start)*float64(i)/curveSteps) * math.Pi / 180
		x, y := ox+rx*math.Cos(theta), oy+ry*math.Sin(theta)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
}

// bezierPoint evaluates the Bezier curve with control points pts at t.
func bezierPoint(pts []PointInfo, t float64) PointInfo {
	tmp := append([]PointInfo(nil), pts...)
	for n := len(tmp) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			tmp[i].X += (tmp[i+1].X - tmp[i].X) * t
			tmp[i].Y += (tmp[i+1].Y - tmp[i].Y) * t
		}
	}
	return tmp[0]
}

// rasterize draws one vector primitive through a gg context.
func rasterize(img *image.NRGBA, cmd drawCmd) (*image.NRGBA, error) {
	dc := gg.NewContextForImage(img)
	defer dc.Close()

	a := cmd.args
	fillable := true
	switch cmd.op {
	case opLine:
		dc.DrawLine(a[0], a[1], a[2], a[3])
		fillable = false
	case opRectangle:
		x0, x1 := math.Min(a[0], a[2]), math.Max(a[0], a[2])
		y0, y1 := math.Min(a[1], a[3]), math.Max(a[1], a[3])
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	case opCircle:
		dc.DrawCircle(a[0], a[1], math.Hypot(a[2]-a[0], a[3]-a[1]))
	case opEllipse:
		if math.Abs(a[5]-a[4]) >= 360 {
			dc.DrawEllipse(a[0], a[1], math.Abs(a[2]), math.Abs(a[3]))
		} else {
			ellipsePath(dc, a[0], a[1], math.Abs(a[2]), math.Abs(a[3]), a[4], a[5])
		}
	case opArc:
		ox, oy := (a[0]+a[2])/2, (a[1]+a[3])/2
		rx, ry := math.Abs(a[2]-a[0])/2, math.Abs(a[3]-a[1])/2
		ellipsePath(dc, ox, oy, rx, ry, a[4], a[5])
	case opPolygon, opPolyline:
		dc.MoveTo(cmd.points[0].X, cmd.points[0].Y)
		for _, p := range cmd.points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		if cmd.op == opPolygon {
			dc.ClosePath()
		}
	case opBezier:
		dc.MoveTo(cmd.points[0].X, cmd.points[0].Y)
		for i := 1; i <= curveSteps; i++ {
			p := bezierPoint(cmd.points, float64(i)/curveSteps)
			dc.LineTo(p.X, p.Y)
		}
	}

	if fillable && cmd.fill.A != 0 {
		dc.SetColor(cmd.fill)
		if err := dc.FillPreserve(); err != nil {
			return img, err
		}
	}
	if cmd.stroke.A != 0 && cmd.strokeWidth > 0 {
		dc.SetColor(cmd.stroke)
		dc.SetLineWidth(cmd.strokeWidth)
		if err := dc.Stroke(); err != nil {
			return img, err
		}
	}
	dc.ClearPath()
	return imaging.Clone(dc.Image()), nil
}
