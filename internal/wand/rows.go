package wand

import "image/color"

// Rows iterates over the pixel rows of an image, top to bottom. Each row
// is read from the library only when Next is called, so an iterator costs
// nothing until used. Reset starts a new pass.
//
//	it := img.Rows()
//	for it.Next() {
//		process(it.Y(), it.Row())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Rows struct {
	img    *Image
	y      int
	height int
	row    []color.NRGBA
	err    error
}

// Next fetches the next row. It returns false at the end of the image or
// on error.
func (it *Rows) Next() bool {
	if it.err != nil {
		return false
	}
	if it.y == 0 {
		h, err := it.img.Height()
		if err != nil {
			it.err = err
			return false
		}
		it.height = h
	}
	if it.y >= it.height {
		it.row = nil
		return false
	}

	row, err := it.img.Row(it.y)
	if err != nil {
		it.err = err
		it.row = nil
		return false
	}
	it.row = row
	it.y++
	return true
}

// Row returns the row fetched by the last successful Next.
func (it *Rows) Row() []color.NRGBA {
	return it.row
}

// Y returns the index of the row returned by Row.
func (it *Rows) Y() int {
	return it.y - 1
}

// Err returns the error that stopped the iteration, if any.
func (it *Rows) Err() error {
	return it.err
}

// Reset rewinds the iterator to the first row and clears any error.
func (it *Rows) Reset() {
	it.y = 0
	it.height = 0
	it.row = nil
	it.err = nil
}
