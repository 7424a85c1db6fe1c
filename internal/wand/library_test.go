package wand

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/ironsheep/image-wand/internal/magick"
)

// countingLibrary wraps the engine and records every destroy call so tests
// can assert exactly-once release.
type countingLibrary struct {
	*magick.Engine

	mu        sync.Mutex
	destroyed map[magick.Handle]int
	failAlloc bool
	failClone bool
}

func newCountingLibrary(opts ...magick.EngineOption) *countingLibrary {
	return &countingLibrary{
		Engine:    magick.NewEngine(opts...),
		destroyed: make(map[magick.Handle]int),
	}
}

func (c *countingLibrary) record(h magick.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed[h]++
}

func (c *countingLibrary) destroyCount(h magick.Handle) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed[h]
}

// assertExactlyOnce fails the test when any handle was destroyed more
// than once or when live handles remain.
func (c *countingLibrary) assertExactlyOnce(t *testing.T) {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()
	for h, n := range c.destroyed {
		if n != 1 {
			t.Errorf("handle %d destroyed %d times", h, n)
		}
	}
	if n := c.Len(); n != 0 {
		t.Errorf("%d handles still live", n)
	}
}

func (c *countingLibrary) NewMagickWand() magick.Handle {
	if c.failAlloc {
		return 0
	}
	return c.Engine.NewMagickWand()
}

func (c *countingLibrary) CloneMagickWand(h magick.Handle) magick.Handle {
	if c.failClone {
		return 0
	}
	return c.Engine.CloneMagickWand(h)
}

func (c *countingLibrary) DestroyMagickWand(h magick.Handle) {
	c.record(h)
	c.Engine.DestroyMagickWand(h)
}

func (c *countingLibrary) DestroyPixelWand(h magick.Handle) {
	c.record(h)
	c.Engine.DestroyPixelWand(h)
}

func (c *countingLibrary) DestroyDrawingWand(h magick.Handle) {
	c.record(h)
	c.Engine.DestroyDrawingWand(h)
}

var _ magick.Library = (*countingLibrary)(nil)

// createPNG encodes a width x height PNG filled with c.
func createPNG(t *testing.T, width, height int, c color.Color) []byte {
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

// openTestImage decodes a PNG fixture through lib.
func openTestImage(t *testing.T, lib magick.Library, width, height int) *Image {
	t.Helper()

	img, err := FromBlob(createPNG(t, width, height, color.NRGBA{R: 200, G: 100, B: 50, A: 255}), WithLibrary(lib))
	if err != nil {
		t.Fatalf("FromBlob failed: %v", err)
	}
	return img
}
