package magick

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

// createPNGBlob encodes a solid-colour PNG of the given size.
func createPNGBlob(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// drain pops every queued exception on a magick wand.
func drain(e *Engine, h Handle) []Exception {
	var out []Exception
	for {
		ex := e.MagickGetException(h)
		if ex.Type == UndefinedException {
			return out
		}
		out = append(out, ex)
	}
}

func TestEngine_HandleLifecycle(t *testing.T) {
	e := NewEngine()

	h := e.NewMagickWand()
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}
	if !e.IsMagickWand(h) {
		t.Fatal("new handle is not a magick wand")
	}
	if e.IsPixelWand(h) || e.IsDrawingWand(h) {
		t.Error("magick handle reported as another kind")
	}
	if e.Len() != 1 {
		t.Errorf("Len: got %d, want 1", e.Len())
	}

	e.DestroyMagickWand(h)
	if e.IsMagickWand(h) {
		t.Error("handle still live after destroy")
	}
	if e.Len() != 0 {
		t.Errorf("Len after destroy: got %d, want 0", e.Len())
	}

	// Destroying twice or destroying a zero handle must be harmless.
	e.DestroyMagickWand(h)
	e.DestroyMagickWand(0)
}

func TestEngine_HandlesAreNotReused(t *testing.T) {
	e := NewEngine()

	h1 := e.NewMagickWand()
	e.DestroyMagickWand(h1)
	h2 := e.NewMagickWand()

	if h1 == h2 {
		t.Errorf("handle %d reused after destroy", h1)
	}
}

func TestEngine_DestroyWrongKind(t *testing.T) {
	e := NewEngine()

	p := e.NewPixelWand()
	e.DestroyMagickWand(p)

	if !e.IsPixelWand(p) {
		t.Error("DestroyMagickWand removed a pixel wand")
	}
}

func TestEngine_HandleLimit(t *testing.T) {
	e := NewEngine(WithHandleLimit(2))

	a := e.NewMagickWand()
	b := e.NewPixelWand()
	if a == 0 || b == 0 {
		t.Fatal("allocations under the limit failed")
	}

	if h := e.NewDrawingWand(); h != 0 {
		t.Errorf("allocation over the limit returned handle %d", h)
	}
	if h := e.CloneMagickWand(a); h != 0 {
		t.Errorf("clone over the limit returned handle %d", h)
	}
	if got := drain(e, a); len(got) != 1 || got[0].Type != ResourceLimitError {
		t.Errorf("clone failure exceptions: got %v, want one ResourceLimitError", got)
	}

	e.DestroyPixelWand(b)
	if h := e.NewDrawingWand(); h == 0 {
		t.Error("allocation failed after a slot was freed")
	}
}

func TestEngine_LenKind(t *testing.T) {
	e := NewEngine()
	e.NewMagickWand()
	e.NewMagickWand()
	e.NewPixelWand()

	if got := e.LenKind(KindMagick); got != 2 {
		t.Errorf("LenKind(magick): got %d, want 2", got)
	}
	if got := e.LenKind(KindPixel); got != 1 {
		t.Errorf("LenKind(pixel): got %d, want 1", got)
	}
	if got := e.LenKind(KindDrawing); got != 0 {
		t.Errorf("LenKind(drawing): got %d, want 0", got)
	}
}

func TestEngine_ExceptionQueue(t *testing.T) {
	e := NewEngine()
	h := e.NewMagickWand()

	if ex := e.MagickGetException(h); ex.Type != UndefinedException {
		t.Fatalf("fresh wand has exception %v", ex)
	}

	e.Throw(h, OptionWarning, "first")
	e.Throw(h, CorruptImageError, "second")

	got := drain(e, h)
	if len(got) != 2 {
		t.Fatalf("drained %d exceptions, want 2", len(got))
	}
	if got[0].Reason != "first" || got[1].Reason != "second" {
		t.Errorf("queue order: got %q then %q", got[0].Reason, got[1].Reason)
	}

	e.Throw(h, WandError, "stale")
	e.MagickClearException(h)
	if ex := e.MagickGetException(h); ex.Type != UndefinedException {
		t.Errorf("exception survived clear: %v", ex)
	}
}

func TestEngine_ThrowOnInvalidHandle(t *testing.T) {
	e := NewEngine()
	if e.Throw(42, WandError, "nope") {
		t.Error("Throw on unknown handle reported success")
	}
}

func TestExceptionType_Severity(t *testing.T) {
	tests := []struct {
		typ  ExceptionType
		want Severity
	}{
		{UndefinedException, SeverityNone},
		{ResourceLimitWarning, SeverityWarning},
		{OptionWarning, SeverityWarning},
		{WandWarning, SeverityWarning},
		{ResourceLimitError, SeverityError},
		{CorruptImageError, SeverityError},
		{WandError, SeverityError},
		{FatalErrorException, SeverityFatal},
		{WandFatalError, SeverityFatal},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := tt.typ.Severity(); got != tt.want {
				t.Errorf("Severity: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExceptionType_String(t *testing.T) {
	if got := CorruptImageError.String(); got != "CorruptImageError" {
		t.Errorf("got %q", got)
	}
	if got := ExceptionType(999).String(); got != "ExceptionType(999)" {
		t.Errorf("got %q", got)
	}
}

func TestEngine_ConcurrentAllocation(t *testing.T) {
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h := e.NewMagickWand()
				if !e.MagickReadImageBlob(h, onePixelPNG) {
					t.Errorf("read failed: %v", drain(e, h))
				}
				e.DestroyMagickWand(h)
			}
		}()
	}
	wg.Wait()

	if e.Len() != 0 {
		t.Errorf("leaked %d handles", e.Len())
	}
}

var onePixelPNG = func() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}()
