package wand

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ironsheep/image-wand/internal/magick"
)

func TestNewColor(t *testing.T) {
	tests := []struct {
		spec string
		want color.NRGBA
		hex  string
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}, "#ff0000"},
		{"#0f0", color.NRGBA{G: 255, A: 255}, "#00ff00"},
		{"#0000ff80", color.NRGBA{B: 255, A: 128}, "#0000ff80"},
		{"navy", color.NRGBA{B: 128, A: 255}, "#000080"},
		{"Transparent", color.NRGBA{}, "#00000000"},
	}

	lib := newCountingLibrary()
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c, err := NewColor(tt.spec, WithLibrary(lib))
			if err != nil {
				t.Fatalf("NewColor failed: %v", err)
			}
			defer c.Close()

			got, err := c.NRGBA()
			if err != nil {
				t.Fatalf("NRGBA failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("NRGBA: got %v, want %v", got, tt.want)
			}
			if s := c.String(); s != tt.hex {
				t.Errorf("String: got %q, want %q", s, tt.hex)
			}
		})
	}
	lib.assertExactlyOnce(t)
}

func TestNewColor_Invalid(t *testing.T) {
	lib := newCountingLibrary()

	for _, spec := range []string{"", "#12", "#zzzzzz", "not-a-colour"} {
		_, err := NewColor(spec, WithLibrary(lib))
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("NewColor(%q): expected ErrInvalidArgument, got %v", spec, err)
		}
	}
	lib.assertExactlyOnce(t)
}

func TestColor_CloneAndClose(t *testing.T) {
	lib := newCountingLibrary()

	c, err := NewColor("orange", WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewColor failed: %v", err)
	}
	clone, err := c.Clone()
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	c.Close()
	c.Close()
	if !c.Closed() {
		t.Error("Closed should be true")
	}
	if _, err := c.NRGBA(); !errors.Is(err, ErrClosed) {
		t.Errorf("NRGBA after close: got %v", err)
	}
	if s := c.String(); s != "<closed color>" {
		t.Errorf("String after close: got %q", s)
	}

	got, err := clone.NRGBA()
	if err != nil {
		t.Fatalf("clone unusable: %v", err)
	}
	if got != (color.NRGBA{R: 255, G: 165, A: 255}) {
		t.Errorf("clone colour: got %v", got)
	}
	clone.Close()

	lib.assertExactlyOnce(t)
}

func TestColor_CloneFailureLeavesColorUsable(t *testing.T) {
	lib := newCountingLibrary(magick.WithHandleLimit(1))

	c, err := NewColor("teal", WithLibrary(lib))
	if err != nil {
		t.Fatalf("NewColor failed: %v", err)
	}

	_, err = c.Clone()
	if !errors.Is(err, ErrClone) {
		t.Fatalf("expected ErrClone, got %v", err)
	}
	var werr *Error
	if !errors.As(err, &werr) || werr.Code != magick.ResourceLimitError || werr.Message == "" {
		t.Errorf("clone error lacks native detail: %v", err)
	}

	got, err := c.NRGBA()
	if err != nil {
		t.Fatalf("color unusable after failed clone: %v", err)
	}
	if got != (color.NRGBA{G: 128, B: 128, A: 255}) {
		t.Errorf("color changed: got %v", got)
	}

	c.Close()
	lib.assertExactlyOnce(t)
}
