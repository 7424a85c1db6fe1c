package wand

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/image-wand/internal/magick"
)

func newWhiteCanvas(t *testing.T, lib magick.Library, width, height int) *Image {
	t.Helper()

	white, err := NewColor("white", WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewColor failed: %v", err)
	}
	defer white.Close()

	img, err := Blank(width, height, white, WithLibrary(lib))
	if err != nil {
		t.Fatalf("Blank failed: %v", err)
	}
	return img
}

func TestDrawing_Shapes(t *testing.T) {
	lib := newCountingLibrary()

	img := newWhiteCanvas(t, lib, 50, 50)
	defer img.Close()

	red, err := NewColor("#ff0000", WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewColor failed: %v", err)
	}
	defer red.Close()

	d, err := NewDrawing(WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewDrawing failed: %v", err)
	}
	defer d.Close()

	if err := d.SetFillColor(red); err != nil {
		t.Fatalf("SetFillColor failed: %v", err)
	}
	if err := d.Rectangle(10, 10, 30, 30); err != nil {
		t.Fatalf("Rectangle failed: %v", err)
	}
	if err := d.Point(45, 45); err != nil {
		t.Fatalf("Point failed: %v", err)
	}
	if err := d.Draw(img); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	inside, _ := img.Pixel(20, 20)
	if inside.R < 200 || inside.G > 50 {
		t.Errorf("pixel inside rectangle: got %v, want red", inside)
	}
	outside, _ := img.Pixel(40, 5)
	if outside != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("pixel outside rectangle: got %v, want white", outside)
	}
	point, _ := img.Pixel(45, 45)
	if point != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("point: got %v, want red", point)
	}
}

func TestDrawing_StrokedLineAndText(t *testing.T) {
	lib := newCountingLibrary()

	img := newWhiteCanvas(t, lib, 80, 40)
	defer img.Close()

	black, _ := NewColor("black", WithLibrary(lib))
	defer black.Close()

	d, _ := NewDrawing(WithLibrary(lib))
	defer d.Close()

	if err := d.SetStrokeColor(black); err != nil {
		t.Fatalf("SetStrokeColor failed: %v", err)
	}
	if err := d.SetStrokeWidth(3); err != nil {
		t.Fatalf("SetStrokeWidth failed: %v", err)
	}
	if err := d.Line(0, 5, 79, 5); err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	if err := d.Circle(60, 25, 60, 30); err != nil {
		t.Fatalf("Circle failed: %v", err)
	}
	if err := d.Text(2, 30, "hi"); err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if err := img.Draw(d); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	onLine, _ := img.Pixel(40, 5)
	if onLine.R > 100 {
		t.Errorf("pixel on line: got %v, want dark", onLine)
	}

	dark := 0
	it := img.Rows()
	for it.Next() {
		if it.Y() < 18 || it.Y() > 32 {
			continue
		}
		for x, px := range it.Row() {
			if x < 20 && px.R < 128 {
				dark++
			}
		}
	}
	if it.Err() != nil {
		t.Fatalf("Rows: %v", it.Err())
	}
	if dark == 0 {
		t.Error("text left no dark pixels")
	}
}

func TestDrawing_Errors(t *testing.T) {
	lib := newCountingLibrary()

	d, err := NewDrawing(WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewDrawing failed: %v", err)
	}

	if err := d.SetStrokeWidth(-1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("negative width: got %v", err)
	}
	if err := d.SetFillColor(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil colour: got %v", err)
	}
	if err := d.Line(0, 0, math.NaN(), 1); !errors.Is(err, ErrOperation) || !errors.Is(err, ErrNative) {
		t.Errorf("NaN coordinate: got %v", err)
	}

	var diags []Diagnostic
	quiet, _ := NewDrawing(WithLibrary(lib), WithDiagnostics(func(dg Diagnostic) { diags = append(diags, dg) }))
	if err := quiet.Text(0, 0, ""); err != nil {
		t.Errorf("empty text should only warn: %v", err)
	}
	if len(diags) != 1 || diags[0].Code != magick.DrawWarning {
		t.Errorf("diagnostics: %+v", diags)
	}
	quiet.Close()

	if err := d.Draw(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil image: got %v", err)
	}

	d.Close()
	if err := d.Point(1, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("after close: got %v", err)
	}

	lib.assertExactlyOnce(t)
}

func TestDrawing_Clone(t *testing.T) {
	lib := newCountingLibrary()

	d, _ := NewDrawing(WithLibrary(lib))
	d.Point(0, 0)

	clone, err := d.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	d.Close()

	img := newWhiteCanvas(t, lib, 2, 2)
	if err := clone.Draw(img); err != nil {
		t.Fatalf("Draw with clone failed: %v", err)
	}
	px, _ := img.Pixel(0, 0)
	if px != (color.NRGBA{A: 255}) {
		t.Errorf("cloned primitive: got %v, want black", px)
	}

	img.Close()
	clone.Close()
	lib.assertExactlyOnce(t)
}

func TestDrawing_ClosedDrawingOnImage(t *testing.T) {
	lib := newCountingLibrary()

	img := newWhiteCanvas(t, lib, 2, 2)
	defer img.Close()

	d, _ := NewDrawing(WithLibrary(lib))
	d.Close()

	if err := img.Draw(d); !errors.Is(err, ErrClosed) {
		t.Errorf("closed drawing: got %v", err)
	}
}

func TestDrawing_CloneFailureLeavesDrawingUsable(t *testing.T) {
	lib := newCountingLibrary(magick.WithHandleLimit(1))

	d, err := NewDrawing(WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewDrawing failed: %v", err)
	}

	_, err = d.Clone()
	if !errors.Is(err, ErrClone) {
		t.Fatalf("expected ErrClone, got %v", err)
	}
	var werr *Error
	if !errors.As(err, &werr) || werr.Code != magick.ResourceLimitError {
		t.Errorf("Code: got %v, want ResourceLimitError", err)
	}

	if err := d.Line(0, 0, 1, 1); err != nil {
		t.Errorf("drawing unusable after failed clone: %v", err)
	}

	d.Close()
	lib.assertExactlyOnce(t)
}

// strokeOnly returns a drawing with a black three pixel stroke and no fill.
func strokeOnly(t *testing.T, lib magick.Library) *Drawing {
	t.Helper()

	d, err := NewDrawing(WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewDrawing failed: %v", err)
	}
	none, _ := NewColor("none", WithLibrary(lib))
	defer none.Close()
	black, _ := NewColor("black", WithLibrary(lib))
	defer black.Close()

	if err := d.SetFillColor(none); err != nil {
		t.Fatalf("SetFillColor failed: %v", err)
	}
	if err := d.SetStrokeColor(black); err != nil {
		t.Fatalf("SetStrokeColor failed: %v", err)
	}
	if err := d.SetStrokeWidth(3); err != nil {
		t.Fatalf("SetStrokeWidth failed: %v", err)
	}
	return d
}

func isDark(img *Image, x, y int) bool {
	px, err := img.Pixel(x, y)
	return err == nil && px.R < 128
}

func TestDrawing_FilledEllipseAndPolygon(t *testing.T) {
	lib := newCountingLibrary()

	img := newWhiteCanvas(t, lib, 50, 100)
	defer img.Close()

	red, _ := NewColor("#ff0000", WithLibrary(lib))
	defer red.Close()

	d, _ := NewDrawing(WithLibrary(lib))
	defer d.Close()

	if err := d.SetFillColor(red); err != nil {
		t.Fatalf("SetFillColor failed: %v", err)
	}
	if err := d.Ellipse(25, 25, 20, 8, 0, 360); err != nil {
		t.Fatalf("Ellipse failed: %v", err)
	}
	if err := d.Polygon([]Point{{X: 10, Y: 60}, {X: 40, Y: 60}, {X: 25, Y: 95}}); err != nil {
		t.Fatalf("Polygon failed: %v", err)
	}
	if err := d.Draw(img); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		red  bool
	}{
		{"ellipse centre", 25, 25, true},
		{"ellipse along x radius", 40, 25, true},
		{"beyond y radius", 25, 40, false},
		{"triangle centroid", 25, 70, true},
		{"beside triangle tip", 10, 90, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, err := img.Pixel(tt.x, tt.y)
			if err != nil {
				t.Fatalf("Pixel failed: %v", err)
			}
			if red := px.R > 200 && px.G < 50; red != tt.red {
				t.Errorf("pixel (%d,%d): got %v, want red=%v", tt.x, tt.y, px, tt.red)
			}
		})
	}
}

func TestDrawing_PolylineStaysOpen(t *testing.T) {
	lib := newCountingLibrary()

	points := []Point{{X: 5, Y: 5}, {X: 45, Y: 5}, {X: 45, Y: 45}}
	render := func(closed bool) *Image {
		img := newWhiteCanvas(t, lib, 50, 50)
		d := strokeOnly(t, lib)
		defer d.Close()

		var err error
		if closed {
			err = d.Polygon(points)
		} else {
			err = d.Polyline(points)
		}
		if err != nil {
			t.Fatalf("path failed: %v", err)
		}
		if err := d.Draw(img); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		return img
	}

	open := render(false)
	defer open.Close()
	closed := render(true)
	defer closed.Close()

	for _, img := range []*Image{open, closed} {
		if !isDark(img, 25, 5) || !isDark(img, 45, 25) {
			t.Error("segment pixels should be stroked")
		}
		if isDark(img, 35, 15) {
			t.Error("interior should stay unfilled")
		}
	}
	if isDark(open, 25, 25) {
		t.Error("polyline drew a closing segment")
	}
	if !isDark(closed, 25, 25) {
		t.Error("polygon is missing its closing segment")
	}
}

func TestDrawing_ArcAndBezier(t *testing.T) {
	lib := newCountingLibrary()

	img := newWhiteCanvas(t, lib, 100, 50)
	defer img.Close()

	d := strokeOnly(t, lib)
	defer d.Close()

	if err := d.Arc(10, 10, 50, 50, 0, 90); err != nil {
		t.Fatalf("Arc failed: %v", err)
	}
	bezier := []Point{{X: 55, Y: 45}, {X: 55, Y: 5}, {X: 95, Y: 5}, {X: 95, Y: 45}}
	if err := d.Bezier(bezier); err != nil {
		t.Fatalf("Bezier failed: %v", err)
	}
	if err := d.Draw(img); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	// 45 degrees on a radius 20 circle centred on (30, 30).
	if !isDark(img, 44, 44) {
		t.Error("arc midpoint not stroked")
	}
	if isDark(img, 10, 30) {
		t.Error("arc drawn outside its sweep")
	}
	// The cubic's midpoint is (P0 + 3P1 + 3P2 + P3) / 8.
	if !isDark(img, 75, 15) {
		t.Error("bezier midpoint not stroked")
	}
	if isDark(img, 75, 40) {
		t.Error("bezier interior filled")
	}
}

func darkRows(t *testing.T, img *Image) int {
	t.Helper()

	rows := 0
	it := img.Rows()
	for it.Next() {
		for _, px := range it.Row() {
			if px.R < 128 {
				rows++
				break
			}
		}
	}
	if it.Err() != nil {
		t.Fatalf("Rows: %v", it.Err())
	}
	return rows
}

func TestDrawing_FontSize(t *testing.T) {
	lib := newCountingLibrary()

	heights := make(map[float64]int)
	for _, size := range []float64{magick.DefaultFontSize, 2 * magick.DefaultFontSize} {
		img := newWhiteCanvas(t, lib, 60, 60)
		d, _ := NewDrawing(WithLibrary(lib))
		if err := d.SetFontSize(size); err != nil {
			t.Fatalf("SetFontSize(%v) failed: %v", size, err)
		}
		if err := d.Text(2, 40, "H"); err != nil {
			t.Fatalf("Text failed: %v", err)
		}
		if err := d.Draw(img); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		heights[size] = darkRows(t, img)
		d.Close()
		img.Close()
	}

	small, large := heights[magick.DefaultFontSize], heights[2*magick.DefaultFontSize]
	if small == 0 {
		t.Fatal("default size text left no dark pixels")
	}
	if large < 2*small-2 {
		t.Errorf("glyph height: got %d rows at double size, %d at default", large, small)
	}
	lib.assertExactlyOnce(t)
}

func TestDrawing_ShapeArgumentErrors(t *testing.T) {
	lib := newCountingLibrary()

	d, _ := NewDrawing(WithLibrary(lib))
	defer d.Close()

	tests := []struct {
		name string
		call func() error
		want []error
	}{
		{"polygon with two points", func() error {
			return d.Polygon([]Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
		}, []error{ErrInvalidArgument}},
		{"polyline with one point", func() error {
			return d.Polyline([]Point{{X: 0, Y: 0}})
		}, []error{ErrInvalidArgument}},
		{"bezier without points", func() error {
			return d.Bezier(nil)
		}, []error{ErrInvalidArgument}},
		{"negative radius", func() error {
			return d.Ellipse(5, 5, -1, 2, 0, 360)
		}, []error{ErrInvalidArgument}},
		{"zero font size", func() error {
			return d.SetFontSize(0)
		}, []error{ErrInvalidArgument}},
		{"NaN vertex", func() error {
			return d.Polyline([]Point{{X: 0, Y: 0}, {X: math.NaN(), Y: 1}})
		}, []error{ErrOperation, ErrNative}},
		{"infinite sweep", func() error {
			return d.Arc(0, 0, 10, 10, 0, math.Inf(1))
		}, []error{ErrOperation, ErrNative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("got %v, want %v", err, want)
				}
			}
		})
	}
}
