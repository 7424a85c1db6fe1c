package wand

import (
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/ironsheep/image-wand/internal/magick"
)

// Source selects where an image is read from. Exactly one field must be
// set.
type Source struct {
	Path   string
	Blob   []byte
	Reader io.Reader
}

// Destination selects where an image is written to. Exactly one of Path
// and Writer must be set. Format overrides the output format; when empty
// it is taken from the Path extension, then from the image itself.
type Destination struct {
	Path   string
	Writer io.Writer
	Format string
}

// Image is a guarded magick wand holding one image.
//
// An Image is either open or closed. Every operation on a closed Image
// fails with ErrClosed, and Close is terminal. An Image must not be used
// from several goroutines at once; distinct Images, including clones,
// are independent.
type Image struct {
	res    *Resource
	cfg    *config
	status *StatusTranslator
	meta   metadata
}

// metadata caches the image properties that are queried most often.
// Mutators invalidate it.
type metadata struct {
	valid  bool
	format string
	width  int
	height int
}

// New reads an image from src.
func New(src Source, opts ...Option) (*Image, error) {
	set := 0
	if src.Path != "" {
		set++
	}
	if src.Blob != nil {
		set++
	}
	if src.Reader != nil {
		set++
	}
	if set != 1 {
		return nil, invalidArgument("open", "exactly one of Path, Blob or Reader must be set, got %d", set)
	}

	img, err := newImage(newConfig(opts))
	if err != nil {
		return nil, err
	}

	lib := img.cfg.lib
	err = img.call("open", KindCodec, func(h magick.Handle) bool {
		switch {
		case src.Path != "":
			return lib.MagickReadImage(h, src.Path)
		case src.Blob != nil:
			return lib.MagickReadImageBlob(h, src.Blob)
		default:
			return lib.MagickReadImageFile(h, src.Reader)
		}
	})
	if err != nil {
		img.Close()
		return nil, err
	}
	return img, nil
}

// Open reads the image file at path.
func Open(path string, opts ...Option) (*Image, error) {
	return New(Source{Path: path}, opts...)
}

// FromBlob decodes an encoded image held in memory.
func FromBlob(blob []byte, opts ...Option) (*Image, error) {
	if blob == nil {
		blob = []byte{}
	}
	return New(Source{Blob: blob}, opts...)
}

// FromReader decodes an image read from r.
func FromReader(r io.Reader, opts ...Option) (*Image, error) {
	return New(Source{Reader: r}, opts...)
}

// Blank creates a width x height canvas filled with background. A nil
// background is transparent. The canvas has no format until one is set by
// Convert or given on export.
func Blank(width, height int, background *Color, opts ...Option) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, invalidArgument("blank", "canvas size %dx%d must be positive", width, height)
	}

	img, err := newImage(newConfig(opts))
	if err != nil {
		return nil, err
	}

	bg, done, err := background.borrowFor("blank", img.cfg.lib)
	if err != nil {
		img.Close()
		return nil, err
	}
	defer done()

	err = img.call("blank", KindOperation, func(h magick.Handle) bool {
		return img.cfg.lib.MagickNewImage(h, width, height, bg)
	})
	if err != nil {
		img.Close()
		return nil, err
	}
	return img, nil
}

func newImage(cfg *config) (*Image, error) {
	res, err := cfg.acquire(magick.KindMagick, cfg.lib.NewMagickWand)
	if err != nil {
		return nil, err
	}
	return &Image{res: res, cfg: cfg, status: cfg.translator()}, nil
}

// call borrows the handle, runs one native call and translates the
// resulting status. Native failures are reported with the given kind.
func (img *Image) call(op string, kind Kind, fn func(h magick.Handle) bool) error {
	h, done, err := img.res.Borrow(op)
	if err != nil {
		return err
	}
	defer done()

	ok := fn(h)
	if err := img.status.Verify(op, h, magick.KindMagick, ok); err != nil {
		return reclassify(err, kind)
	}
	return nil
}

// mutate is call for operations that change the pixels or geometry.
func (img *Image) mutate(op string, fn func(h magick.Handle) bool) error {
	if err := img.ensureOpen(op); err != nil {
		return err
	}
	img.meta.valid = false
	return img.call(op, KindOperation, fn)
}

func (img *Image) ensureOpen(op string) error {
	if img.res.Closed() {
		return closedError(op)
	}
	return nil
}

// Close releases the native wand. It is safe to call more than once.
func (img *Image) Close() error {
	img.res.Release()
	return nil
}

// Closed reports whether Close has been called.
func (img *Image) Closed() bool {
	return img.res.Closed()
}

// Clone returns an independent deep copy of the image.
func (img *Image) Clone() (*Image, error) {
	res, err := img.res.Clone("clone", img.status)
	if err != nil {
		return nil, err
	}
	return &Image{res: res, cfg: img.cfg, status: img.status, meta: img.meta}, nil
}

func (img *Image) load(op string) error {
	if err := img.ensureOpen(op); err != nil {
		return err
	}
	if img.meta.valid {
		return nil
	}

	var m metadata
	lib := img.cfg.lib
	err := img.call(op, KindOperation, func(h magick.Handle) bool {
		m.format = lib.MagickGetImageFormat(h)
		m.width = lib.MagickGetImageWidth(h)
		m.height = lib.MagickGetImageHeight(h)
		return true
	})
	if err != nil {
		return err
	}
	m.valid = true
	img.meta = m
	return nil
}

// Width returns the image width in pixels.
func (img *Image) Width() (int, error) {
	if err := img.load("width"); err != nil {
		return 0, err
	}
	return img.meta.width, nil
}

// Height returns the image height in pixels.
func (img *Image) Height() (int, error) {
	if err := img.load("height"); err != nil {
		return 0, err
	}
	return img.meta.height, nil
}

// Size returns the image width and height in pixels.
func (img *Image) Size() (width, height int, err error) {
	if err := img.load("size"); err != nil {
		return 0, 0, err
	}
	return img.meta.width, img.meta.height, nil
}

// Format returns the format the image will be written in, such as "PNG".
// It is empty for a blank canvas.
func (img *Image) Format() (string, error) {
	if err := img.load("format"); err != nil {
		return "", err
	}
	return img.meta.format, nil
}

// MimeType returns the MIME type of the image's format, or "" when the
// format has none.
func (img *Image) MimeType() (string, error) {
	f, err := img.Format()
	if err != nil {
		return "", err
	}
	return magick.MimeType(f), nil
}

// Resize scales the image to exactly width x height.
func (img *Image) Resize(width, height int, filter magick.FilterType) error {
	if err := img.ensureOpen("resize"); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return invalidArgument("resize", "size %dx%d must be positive", width, height)
	}
	return img.mutate("resize", func(h magick.Handle) bool {
		return img.cfg.lib.MagickResizeImage(h, width, height, filter)
	})
}

// Rotate turns the image clockwise by degrees. Uncovered corners are
// filled with background; nil is transparent.
func (img *Image) Rotate(degrees float64, background *Color) error {
	if err := img.ensureOpen("rotate"); err != nil {
		return err
	}
	bg, done, err := background.borrowFor("rotate", img.cfg.lib)
	if err != nil {
		return err
	}
	defer done()

	return img.mutate("rotate", func(h magick.Handle) bool {
		return img.cfg.lib.MagickRotateImage(h, bg, degrees)
	})
}

// SepiaTone tones the image in sepia. threshold ranges from 0 (unchanged)
// to 1 (fully toned).
func (img *Image) SepiaTone(threshold float64) error {
	return img.mutate("sepia_tone", func(h magick.Handle) bool {
		return img.cfg.lib.MagickSepiaToneImage(h, threshold)
	})
}

// Flip mirrors the image top to bottom.
func (img *Image) Flip() error {
	return img.mutate("flip", img.cfg.lib.MagickFlipImage)
}

// Flop mirrors the image left to right.
func (img *Image) Flop() error {
	return img.mutate("flop", img.cfg.lib.MagickFlopImage)
}

// Blur applies a gaussian blur of the given sigma.
func (img *Image) Blur(sigma float64) error {
	if err := img.ensureOpen("blur"); err != nil {
		return err
	}
	if !(sigma > 0) {
		return invalidArgument("blur", "sigma %v must be positive", sigma)
	}
	return img.mutate("blur", func(h magick.Handle) bool {
		return img.cfg.lib.MagickBlurImage(h, sigma)
	})
}

// Crop keeps the part of the image inside r. Bounds are clamped to the
// current image; a region with no area left fails with
// ErrInvalidArgument and leaves the image unchanged.
func (img *Image) Crop(r Region) error {
	w, h, err := img.Size()
	if err != nil {
		return err
	}

	rect := r.Clamp(w, h)
	if rect.Empty() {
		return invalidArgument("crop", "region %v is empty within %dx%d image", rect, w, h)
	}

	return img.mutate("crop", func(hd magick.Handle) bool {
		return img.cfg.lib.MagickCropImage(hd, rect.Dx(), rect.Dy(), rect.Min.X, rect.Min.Y)
	})
}

// Draw renders every primitive recorded on d onto the image.
func (img *Image) Draw(d *Drawing) error {
	if err := img.ensureOpen("draw"); err != nil {
		return err
	}
	if d == nil {
		return invalidArgument("draw", "nil drawing")
	}
	if d.cfg.lib != img.cfg.lib {
		return invalidArgument("draw", "drawing belongs to a different library")
	}

	dh, done, err := d.res.Borrow("draw")
	if err != nil {
		return err
	}
	defer done()

	return img.mutate("draw", func(h magick.Handle) bool {
		return img.cfg.lib.MagickDrawImage(h, dh)
	})
}

// Row returns a copy of pixel row y.
func (img *Image) Row(y int) ([]color.NRGBA, error) {
	_, height, err := img.Size()
	if err != nil {
		return nil, err
	}
	if y < 0 || y >= height {
		return nil, invalidArgument("row", "row %d outside image of height %d", y, height)
	}

	var row []color.NRGBA
	err = img.call("row", KindOperation, func(h magick.Handle) bool {
		row = img.cfg.lib.MagickGetImageRow(h, y)
		return row != nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Pixel returns the colour at (x, y).
func (img *Image) Pixel(x, y int) (color.NRGBA, error) {
	width, height, err := img.Size()
	if err != nil {
		return color.NRGBA{}, err
	}
	if !image.Pt(x, y).In(image.Rect(0, 0, width, height)) {
		return color.NRGBA{}, invalidArgument("pixel", "point (%d, %d) outside %dx%d image", x, y, width, height)
	}

	row, err := img.Row(y)
	if err != nil {
		return color.NRGBA{}, err
	}
	return row[x], nil
}

// Rows returns an iterator over the pixel rows, top to bottom. Each row
// is fetched from the library when the iterator advances.
func (img *Image) Rows() *Rows {
	return &Rows{img: img}
}

// Blob encodes the image. An empty format uses the image's own format.
// The image's format is not changed.
func (img *Image) Blob(format string) ([]byte, error) {
	var blob []byte
	err := img.export("blob", format, func(h magick.Handle) bool {
		blob = img.cfg.lib.MagickGetImageBlob(h)
		return blob != nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Save writes the image to dst. The image's format is not changed.
func (img *Image) Save(dst Destination) error {
	if err := img.ensureOpen("save"); err != nil {
		return err
	}
	if (dst.Path == "") == (dst.Writer == nil) {
		return invalidArgument("save", "exactly one of Path or Writer must be set")
	}

	format := dst.Format
	if format == "" && dst.Path != "" {
		format = magick.FormatFromFilename(dst.Path)
	}

	lib := img.cfg.lib
	return img.export("save", format, func(h magick.Handle) bool {
		if dst.Path != "" {
			return lib.MagickWriteImage(h, dst.Path)
		}
		return lib.MagickWriteImageFile(h, dst.Writer)
	})
}

// export runs write against the image, or against a temporary copy in
// the requested format when it differs from the image's own.
func (img *Image) export(op, format string, write func(h magick.Handle) bool) error {
	current, err := img.Format()
	if err != nil {
		return err
	}
	if format == "" || strings.EqualFold(format, current) {
		return img.call(op, KindCodec, write)
	}

	tmp, err := img.Clone()
	if err != nil {
		return err
	}
	defer tmp.Close()

	lib := img.cfg.lib
	err = tmp.call(op, KindCodec, func(h magick.Handle) bool {
		return lib.MagickSetImageFormat(h, format)
	})
	if err != nil {
		return err
	}
	return tmp.call(op, KindCodec, write)
}

// Convert changes the image's format. The converted copy replaces the
// current native wand, which is released.
func (img *Image) Convert(format string) error {
	if err := img.ensureOpen("convert"); err != nil {
		return err
	}
	if strings.TrimSpace(format) == "" {
		return invalidArgument("convert", "format must not be empty")
	}

	tmp, err := img.Clone()
	if err != nil {
		return err
	}
	defer tmp.Close()

	lib := img.cfg.lib
	err = tmp.call("convert", KindCodec, func(h magick.Handle) bool {
		return lib.MagickSetImageFormat(h, format)
	})
	if err != nil {
		return err
	}

	img.meta.valid = false
	return img.adopt("convert", tmp)
}

// adopt moves the handle owned by other into img, releasing img's
// previous handle. other is left closed.
func (img *Image) adopt(op string, other *Image) error {
	h, err := other.res.detach(op)
	if err != nil {
		return err
	}
	return img.res.Swap(op, h)
}
