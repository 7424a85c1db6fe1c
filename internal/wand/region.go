package wand

import "image"

// Bound is one optional edge of a Region. The zero Bound is open and
// stands for the matching edge of the image.
type Bound struct {
	value int
	set   bool
}

// At returns a Bound fixed at v. Negative values are clamped to the
// image, not counted from the far edge.
func At(v int) Bound {
	return Bound{value: v, set: true}
}

// Open reports whether the bound falls back to the image edge.
func (b Bound) Open() bool {
	return !b.set
}

func (b Bound) or(def int) int {
	if b.set {
		return b.value
	}
	return def
}

// Region selects a rectangle of an image. Left and Top are inclusive,
// Right and Bottom exclusive.
type Region struct {
	Left, Top, Right, Bottom Bound
}

// Rect returns a Region with all four bounds set.
func Rect(left, top, right, bottom int) Region {
	return Region{Left: At(left), Top: At(top), Right: At(right), Bottom: At(bottom)}
}

// Clamp resolves the region against a width x height image. Open bounds
// take the image edge and every bound is limited to the image. The
// result is empty when no area remains.
func (r Region) Clamp(width, height int) image.Rectangle {
	x0 := clamp(r.Left.or(0), 0, width)
	y0 := clamp(r.Top.or(0), 0, height)
	x1 := clamp(r.Right.or(width), 0, width)
	y1 := clamp(r.Bottom.or(height), 0, height)
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}
	}
	return image.Rect(x0, y0, x1, y1)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
