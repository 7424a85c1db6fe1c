// Package magick is the native image library boundary used by package wand.
//
// The Library interface mirrors the MagickWand C API: wands are opaque
// handles created and destroyed by the library, calls report failure by
// returning false (or a zero value) and queueing an Exception on the wand,
// and the caller is expected to drain that queue after every call.
//
// # Engine
//
// Engine is the in-process implementation. It keeps wands in a handle
// table and delegates pixel work to image libraries:
//
//   - decode, encode, resize, rotate, crop, flip: disintegration/imaging
//   - sepia tone and gaussian blur: anthonynsimon/bild
//   - colour parsing for pixel wands: go-colorful and x/image/colornames
//   - vector primitives for drawing wands: gogpu/gg
//
// Supported formats are JPEG, PNG, GIF, TIFF and BMP for reading and
// writing, and WebP for reading only.
//
// # Exceptions
//
// Each handle owns a FIFO queue of Exception records. Get*Exception pops
// the oldest record and returns a zero Exception once the queue is empty;
// Clear*Exception empties it. Severity is derived from the numeric type
// in the MagickCore bands (warnings 300-399, errors 400-699, fatal 700+).
//
// # Thread Safety
//
// The handle table is safe for concurrent use. Operations on one wand are
// not re-entrant and must be serialized by the caller; distinct wands can
// be used from different goroutines.
package magick
