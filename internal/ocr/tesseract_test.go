package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/image-wand/internal/magick"
	"github.com/ironsheep/image-wand/internal/wand"
)

func skipWithoutTesseract(t *testing.T) {
	t.Helper()
	if info := Info(); !info.Available {
		t.Skipf("Tesseract not available: %s", info.Error)
	}
}

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createImageWithText renders text in black on white and scales it up so
// Tesseract can read the bitmap font.
func createImageWithText(t *testing.T, text string, scale int) *wand.Image {
	t.Helper()

	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	img, err := wand.FromBlob(buf.Bytes())
	if err != nil {
		t.Fatalf("failed to open image: %v", err)
	}
	if scale > 1 {
		if err := img.Resize(width*scale, height*scale, magick.PointFilter); err != nil {
			img.Close()
			t.Fatalf("failed to scale image: %v", err)
		}
	}
	return img
}

func TestRecognize(t *testing.T) {
	skipWithoutTesseract(t)

	img := createImageWithText(t, "HELLO WORLD", 4)
	defer img.Close()

	result, err := Recognize(img, "eng")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !strings.Contains(strings.ToUpper(result.FullText), "HELLO") {
		t.Errorf("FullText %q does not contain HELLO", result.FullText)
	}
	if len(result.Words) == 0 {
		t.Error("expected word boxes")
	}
	for _, w := range result.Words {
		if w.Text == "" {
			t.Error("empty word not filtered")
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("confidence %v outside [0, 1]", w.Confidence)
		}
	}
}

func TestRecognize_KeepsImageFormat(t *testing.T) {
	skipWithoutTesseract(t)

	img := createImageWithText(t, "ABC", 3)
	defer img.Close()
	if err := img.Convert("JPEG"); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if _, err := Recognize(img, ""); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if f, _ := img.Format(); f != "JPEG" {
		t.Errorf("format changed to %q", f)
	}
}

func TestRecognize_InvalidLanguage(t *testing.T) {
	skipWithoutTesseract(t)

	img := createImageWithText(t, "TEST", 2)
	defer img.Close()

	if _, err := Recognize(img, "zz_not_a_language"); err == nil {
		t.Error("Recognize should fail for an unknown language")
	}
}

func TestRecognize_ClosedImage(t *testing.T) {
	img := createImageWithText(t, "X", 1)
	img.Close()

	_, err := Recognize(img, "eng")
	if !errors.Is(err, wand.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestRecognizeRegion_Offsets(t *testing.T) {
	skipWithoutTesseract(t)

	img := createImageWithText(t, "OFFSET TEXT", 4)
	defer img.Close()

	region := wand.Region{Left: wand.At(40), Top: wand.At(20)}
	result, err := RecognizeRegion(img, region, "eng")
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}
	for _, w := range result.Words {
		if w.Bounds.X1 < 40 || w.Bounds.Y1 < 20 {
			t.Errorf("word %q bounds %+v not offset into image coordinates", w.Text, w.Bounds)
		}
	}

	if w, h, _ := img.Size(); w == 0 || h == 0 {
		t.Error("source image changed by region OCR")
	}
}

func TestRecognizeRegion_Empty(t *testing.T) {
	img := createImageWithText(t, "X", 1)
	defer img.Close()

	_, err := RecognizeRegion(img, wand.Rect(10, 10, 10, 10), "eng")
	if !errors.Is(err, wand.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDetectBlocks(t *testing.T) {
	skipWithoutTesseract(t)

	img := createImageWithText(t, "BLOCK OF TEXT", 4)
	defer img.Close()

	all, err := DetectBlocks(img, 0)
	if err != nil {
		t.Fatalf("DetectBlocks failed: %v", err)
	}
	strict, err := DetectBlocks(img, 1.01)
	if err != nil {
		t.Fatalf("DetectBlocks failed: %v", err)
	}
	if len(strict) != 0 {
		t.Errorf("confidence above 1 kept %d blocks", len(strict))
	}
	for _, b := range all {
		if b.Bounds.X2 <= b.Bounds.X1 || b.Bounds.Y2 <= b.Bounds.Y1 {
			t.Errorf("degenerate block bounds %+v", b.Bounds)
		}
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if info.Available && len(info.Languages) == 0 {
		t.Error("available engine reported no languages")
	}
	if !info.Available && info.Error == "" && len(info.Languages) > 0 {
		t.Error("languages present but engine unavailable")
	}
}
