package magick

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// magickWand holds at most one image and the format it will be encoded in.
type magickWand struct {
	exceptionQueue
	img    *image.NRGBA
	format string
}

func (w *magickWand) status() *exceptionQueue { return &w.exceptionQueue }

func (w *magickWand) clone() wand {
	c := &magickWand{format: w.format}
	if w.img != nil {
		c.img = imaging.Clone(w.img)
	}
	return c
}

// hasImage queues a WandError when the wand holds no image yet.
func (w *magickWand) hasImage() bool {
	if w.img == nil {
		return w.throw(WandError, "ContainsNoImages `MagickWand'")
	}
	return true
}

// formats the engine knows about, keyed by canonical name.
var formats = map[string]struct {
	mime   string
	encode bool
}{
	"JPEG": {"image/jpeg", true},
	"PNG":  {"image/png", true},
	"GIF":  {"image/gif", true},
	"TIFF": {"image/tiff", true},
	"BMP":  {"image/bmp", true},
	"WEBP": {"image/webp", false},
}

// CanonicalFormat maps a user-supplied format name or file extension to the
// engine's canonical upper-case name. It returns "" for unknown formats.
func CanonicalFormat(name string) string {
	f := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(name), "."))
	switch f {
	case "JPG", "JPE", "JFIF":
		f = "JPEG"
	case "TIF":
		f = "TIFF"
	}
	if _, ok := formats[f]; !ok {
		return ""
	}
	return f
}

// FormatFromFilename returns the canonical format implied by a file name's
// extension, or "" when the extension is not recognized.
func FormatFromFilename(name string) string {
	return CanonicalFormat(filepath.Ext(name))
}

// MimeType returns the MIME type for a canonical format name.
func MimeType(format string) string {
	if f, ok := formats[CanonicalFormat(format)]; ok {
		return f.mime
	}
	return ""
}

func (e *Engine) magick(h Handle) *magickWand {
	w, _ := e.lookup(h, KindMagick).(*magickWand)
	return w
}

// NewMagickWand allocates an empty magick wand.
func (e *Engine) NewMagickWand() Handle {
	return e.insert(KindMagick, &magickWand{})
}

// CloneMagickWand deep-copies a magick wand including its pixels.
func (e *Engine) CloneMagickWand(h Handle) Handle {
	return e.cloneOf(h, KindMagick)
}

// DestroyMagickWand releases a magick wand.
func (e *Engine) DestroyMagickWand(h Handle) {
	e.remove(h, KindMagick)
}

// IsMagickWand reports whether h is a live magick wand.
func (e *Engine) IsMagickWand(h Handle) bool {
	return e.magick(h) != nil
}

// MagickGetException pops the oldest queued exception.
func (e *Engine) MagickGetException(h Handle) Exception {
	return e.getException(h, KindMagick)
}

// MagickClearException discards all queued exceptions.
func (e *Engine) MagickClearException(h Handle) {
	e.clearException(h, KindMagick)
}

// MagickReadImage decodes the file at path into the wand.
func (e *Engine) MagickReadImage(h Handle, path string) bool {
	w := e.magick(h)
	if w == nil {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return w.throw(FileOpenError, fmt.Sprintf("unable to open image `%s': %v", path, unwrapPathError(err)))
	}
	defer f.Close()

	return e.decodeInto(w, f, path)
}

// MagickReadImageBlob decodes an in-memory encoded image into the wand.
func (e *Engine) MagickReadImageBlob(h Handle, blob []byte) bool {
	w := e.magick(h)
	if w == nil {
		return false
	}
	if len(blob) == 0 {
		return w.throw(BlobError, "zero-length blob not permitted")
	}
	return e.decodeInto(w, bytes.NewReader(blob), "blob")
}

// MagickReadImageFile decodes an image read from r into the wand.
func (e *Engine) MagickReadImageFile(h Handle, r io.Reader) bool {
	w := e.magick(h)
	if w == nil {
		return false
	}
	if r == nil {
		return w.throw(BlobError, "no stream supplied")
	}
	return e.decodeInto(w, r, "stream")
}

func (e *Engine) decodeInto(w *magickWand, r io.Reader, origin string) bool {
	data, err := io.ReadAll(r)
	if err != nil {
		return w.throw(BlobError, fmt.Sprintf("unable to read `%s': %v", origin, err))
	}
	if len(data) == 0 {
		return w.throw(CorruptImageError, fmt.Sprintf("improper image header `%s'", origin))
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return w.throw(MissingDelegateError, fmt.Sprintf("no decode delegate for this image format `%s'", origin))
		}
		return w.throw(CorruptImageError, fmt.Sprintf("%v `%s'", err, origin))
	}

	w.img = imaging.Clone(img)
	w.format = CanonicalFormat(name)
	return true
}

// MagickNewImage replaces the wand's image with a blank canvas filled with
// the background pixel wand's colour. A zero background is transparent.
func (e *Engine) MagickNewImage(h Handle, width, height int, background Handle) bool {
	w := e.magick(h)
	if w == nil {
		return false
	}
	if width <= 0 || height <= 0 {
		return w.throw(OptionError, fmt.Sprintf("NegativeOrZeroImageSize `%dx%d'", width, height))
	}
	bg, ok := e.backgroundColor(w, background)
	if !ok {
		return false
	}
	w.img = imaging.New(width, height, bg)
	return true
}

func (e *Engine) backgroundColor(w *magickWand, background Handle) (color.NRGBA, bool) {
	if background == 0 {
		return color.NRGBA{}, true
	}
	p := e.pixel(background)
	if p == nil {
		return color.NRGBA{}, w.throw(WandError, "InvalidPixelWand `background'")
	}
	return p.c, true
}

// MagickWriteImage encodes the wand's image in its current format to path.
// A partially written file is removed on failure.
func (e *Engine) MagickWriteImage(h Handle, path string) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}

	f, err := os.Create(path)
	if err != nil {
		return w.throw(FileOpenError, fmt.Sprintf("unable to open image `%s': %v", path, unwrapPathError(err)))
	}
	if !e.encode(w, f) {
		f.Close()
		os.Remove(path)
		return false
	}
	if err := f.Close(); err != nil {
		return w.throw(FileOpenError, fmt.Sprintf("unable to close image `%s': %v", path, err))
	}
	return true
}

// MagickWriteImageFile encodes the wand's image in its current format to out.
func (e *Engine) MagickWriteImageFile(h Handle, out io.Writer) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	if out == nil {
		return w.throw(BlobError, "no stream supplied")
	}
	return e.encode(w, out)
}

// MagickGetImageBlob encodes the wand's image in its current format.
// It returns nil on failure.
func (e *Engine) MagickGetImageBlob(h Handle) []byte {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return nil
	}
	var buf bytes.Buffer
	if !e.encode(w, &buf) {
		return nil
	}
	return buf.Bytes()
}

func (e *Engine) encode(w *magickWand, out io.Writer) bool {
	var (
		format imaging.Format
		opts   []imaging.EncodeOption
	)
	switch w.format {
	case "JPEG":
		format = imaging.JPEG
		q := e.quality
		if q < 1 || q > 100 {
			clamped := min(max(q, 1), 100)
			w.push(Exception{
				Type:   OptionWarning,
				Reason: fmt.Sprintf("quality %d out of range, using %d", q, clamped),
			})
			q = clamped
		}
		opts = append(opts, imaging.JPEGQuality(q))
	case "PNG":
		format = imaging.PNG
	case "GIF":
		format = imaging.GIF
	case "TIFF":
		format = imaging.TIFF
	case "BMP":
		format = imaging.BMP
	default:
		return w.throw(MissingDelegateError, fmt.Sprintf("no encode delegate for this image format `%s'", w.format))
	}

	if err := imaging.Encode(out, w.img, format, opts...); err != nil {
		return w.throw(CoderError, fmt.Sprintf("unable to encode %s image: %v", w.format, err))
	}
	return true
}

// MagickGetImageFormat returns the canonical format the image will be
// encoded in, or "" when none has been set.
func (e *Engine) MagickGetImageFormat(h Handle) string {
	w := e.magick(h)
	if w == nil {
		return ""
	}
	return w.format
}

// MagickSetImageFormat changes the encode format of the wand.
func (e *Engine) MagickSetImageFormat(h Handle, format string) bool {
	w := e.magick(h)
	if w == nil {
		return false
	}
	f := CanonicalFormat(format)
	if f == "" {
		return w.throw(OptionError, fmt.Sprintf("UnrecognizedImageFormat `%s'", format))
	}
	w.format = f
	return true
}

// MagickGetImageWidth returns the image width, or 0 without an image.
func (e *Engine) MagickGetImageWidth(h Handle) int {
	w := e.magick(h)
	if w == nil || w.img == nil {
		return 0
	}
	return w.img.Bounds().Dx()
}

// MagickGetImageHeight returns the image height, or 0 without an image.
func (e *Engine) MagickGetImageHeight(h Handle) int {
	w := e.magick(h)
	if w == nil || w.img == nil {
		return 0
	}
	return w.img.Bounds().Dy()
}

// MagickGetImageRow copies one row of pixels. It returns nil on failure.
func (e *Engine) MagickGetImageRow(h Handle, y int) []color.NRGBA {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return nil
	}
	b := w.img.Bounds()
	if y < 0 || y >= b.Dy() {
		w.throw(OptionError, fmt.Sprintf("row %d outside image of height %d", y, b.Dy()))
		return nil
	}

	row := make([]color.NRGBA, b.Dx())
	for x := range row {
		row[x] = w.img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
	}
	return row
}

var resampleFilters = map[FilterType]imaging.ResampleFilter{
	UndefinedFilter: imaging.Lanczos,
	PointFilter:     imaging.NearestNeighbor,
	BoxFilter:       imaging.Box,
	TriangleFilter:  imaging.Linear,
	HermiteFilter:   imaging.Hermite,
	HannFilter:      imaging.Hann,
	HammingFilter:   imaging.Hamming,
	BlackmanFilter:  imaging.Blackman,
	GaussianFilter:  imaging.Gaussian,
	CatromFilter:    imaging.CatmullRom,
	MitchellFilter:  imaging.MitchellNetravali,
	LanczosFilter:   imaging.Lanczos,
	BartlettFilter:  imaging.Bartlett,
	WelchFilter:     imaging.Welch,
	CosineFilter:    imaging.Cosine,
	SplineFilter:    imaging.BSpline,
}

// MagickResizeImage scales the image to exactly width x height.
func (e *Engine) MagickResizeImage(h Handle, width, height int, filter FilterType) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	if width <= 0 || height <= 0 {
		return w.throw(OptionError, fmt.Sprintf("NegativeOrZeroImageSize `%dx%d'", width, height))
	}
	rf, ok := resampleFilters[filter]
	if !ok {
		return w.throw(OptionError, fmt.Sprintf("UnrecognizedFilterType `%d'", int(filter)))
	}
	w.img = imaging.Resize(w.img, width, height, rf)
	return true
}

// MagickRotateImage rotates the image clockwise by degrees, filling the
// uncovered corners with the background pixel wand's colour.
func (e *Engine) MagickRotateImage(h Handle, background Handle, degrees float64) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return w.throw(OptionError, fmt.Sprintf("InvalidArgument `%v'", degrees))
	}
	bg, ok := e.backgroundColor(w, background)
	if !ok {
		return false
	}
	// imaging rotates counter-clockwise.
	w.img = imaging.Rotate(w.img, -degrees, bg)
	return true
}

// MagickSepiaToneImage tones the image in sepia. threshold in [0, 1]
// controls the strength of the toning.
func (e *Engine) MagickSepiaToneImage(h Handle, threshold float64) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return w.throw(OptionError, fmt.Sprintf("threshold %v outside [0, 1]", threshold))
	}
	toned := effect.Sepia(w.img)
	w.img = imaging.Overlay(w.img, toned, image.Pt(0, 0), threshold)
	return true
}

// MagickCropImage keeps the width x height region whose top-left corner
// is (x, y). The region must lie inside the image.
func (e *Engine) MagickCropImage(h Handle, width, height, x, y int) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	if width <= 0 || height <= 0 {
		return w.throw(OptionError, fmt.Sprintf("NegativeOrZeroImageSize `%dx%d'", width, height))
	}
	rect := image.Rect(x, y, x+width, y+height)
	if !rect.In(w.img.Bounds()) {
		return w.throw(OptionError, fmt.Sprintf("GeometryDoesNotContainImage `%dx%d%+d%+d'", width, height, x, y))
	}
	w.img = imaging.Crop(w.img, rect)
	return true
}

// MagickFlipImage mirrors the image vertically.
func (e *Engine) MagickFlipImage(h Handle) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	w.img = imaging.FlipV(w.img)
	return true
}

// MagickFlopImage mirrors the image horizontally.
func (e *Engine) MagickFlopImage(h Handle) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	w.img = imaging.FlipH(w.img)
	return true
}

// MagickBlurImage applies a gaussian blur with the given sigma.
func (e *Engine) MagickBlurImage(h Handle, sigma float64) bool {
	w := e.magick(h)
	if w == nil || !w.hasImage() {
		return false
	}
	if math.IsNaN(sigma) || sigma <= 0 {
		return w.throw(OptionError, fmt.Sprintf("InvalidArgument `sigma %v'", sigma))
	}
	w.img = imaging.Clone(blur.Gaussian(w.img, sigma))
	return true
}

func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
