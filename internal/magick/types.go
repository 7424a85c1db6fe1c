package magick

import (
	"fmt"
	"image/color"
	"io"
)

// Handle is an opaque reference to a wand owned by a Library.
// Handle 0 is reserved and always invalid; allocators return it on failure.
type Handle uint64

// Kind identifies the family a wand handle belongs to.
type Kind uint8

const (
	KindMagick Kind = iota + 1
	KindPixel
	KindDrawing
)

func (k Kind) String() string {
	switch k {
	case KindMagick:
		return "magick"
	case KindPixel:
		return "pixel"
	case KindDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// ExceptionType is the native status code attached to a wand after a call.
// Values follow the MagickCore numbering: 300-399 are warnings,
// 400-699 are errors and 700 and above are fatal.
type ExceptionType int

const (
	UndefinedException ExceptionType = 0

	WarningException       ExceptionType = 300
	ResourceLimitWarning   ExceptionType = 300
	TypeWarning            ExceptionType = 305
	OptionWarning          ExceptionType = 310
	DelegateWarning        ExceptionType = 315
	MissingDelegateWarning ExceptionType = 320
	CorruptImageWarning    ExceptionType = 325
	FileOpenWarning        ExceptionType = 330
	BlobWarning            ExceptionType = 335
	CoderWarning           ExceptionType = 350
	DrawWarning            ExceptionType = 360
	ImageWarning           ExceptionType = 365
	WandWarning            ExceptionType = 370

	ErrorException       ExceptionType = 400
	ResourceLimitError   ExceptionType = 400
	TypeError            ExceptionType = 405
	OptionError          ExceptionType = 410
	DelegateError        ExceptionType = 415
	MissingDelegateError ExceptionType = 420
	CorruptImageError    ExceptionType = 425
	FileOpenError        ExceptionType = 430
	BlobError            ExceptionType = 435
	CoderError           ExceptionType = 450
	DrawError            ExceptionType = 460
	ImageError           ExceptionType = 465
	WandError            ExceptionType = 470

	FatalErrorException     ExceptionType = 700
	ResourceLimitFatalError ExceptionType = 700
	CorruptImageFatalError  ExceptionType = 725
	WandFatalError          ExceptionType = 770
)

var exceptionNames = map[ExceptionType]string{
	UndefinedException:      "UndefinedException",
	ResourceLimitWarning:    "ResourceLimitWarning",
	TypeWarning:             "TypeWarning",
	OptionWarning:           "OptionWarning",
	DelegateWarning:         "DelegateWarning",
	MissingDelegateWarning:  "MissingDelegateWarning",
	CorruptImageWarning:     "CorruptImageWarning",
	FileOpenWarning:         "FileOpenWarning",
	BlobWarning:             "BlobWarning",
	CoderWarning:            "CoderWarning",
	DrawWarning:             "DrawWarning",
	ImageWarning:            "ImageWarning",
	WandWarning:             "WandWarning",
	ResourceLimitError:      "ResourceLimitError",
	TypeError:               "TypeError",
	OptionError:             "OptionError",
	DelegateError:           "DelegateError",
	MissingDelegateError:    "MissingDelegateError",
	CorruptImageError:       "CorruptImageError",
	FileOpenError:           "FileOpenError",
	BlobError:               "BlobError",
	CoderError:              "CoderError",
	DrawError:               "DrawError",
	ImageError:              "ImageError",
	WandError:               "WandError",
	ResourceLimitFatalError: "ResourceLimitFatalError",
	CorruptImageFatalError:  "CorruptImageFatalError",
	WandFatalError:          "WandFatalError",
}

func (t ExceptionType) String() string {
	if name, ok := exceptionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ExceptionType(%d)", int(t))
}

// Severity classifies an exception type.
type Severity uint8

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Severity returns the severity band of t.
func (t ExceptionType) Severity() Severity {
	switch {
	case t < WarningException:
		return SeverityNone
	case t < ErrorException:
		return SeverityWarning
	case t < FatalErrorException:
		return SeverityError
	default:
		return SeverityFatal
	}
}

// Exception is one queued status record read back from a wand.
type Exception struct {
	Type   ExceptionType
	Reason string
}

// PointInfo is a vertex of a path primitive.
type PointInfo struct {
	X, Y float64
}

// FilterType selects the resampling kernel used by MagickResizeImage.
type FilterType int

const (
	UndefinedFilter FilterType = iota
	PointFilter
	BoxFilter
	TriangleFilter
	HermiteFilter
	HannFilter
	HammingFilter
	BlackmanFilter
	GaussianFilter
	CatromFilter
	MitchellFilter
	LanczosFilter
	BartlettFilter
	WelchFilter
	CosineFilter
	SplineFilter
)

// Library is the native image library boundary. Calls never return Go
// errors: failures are reported by a false/zero result and a queued
// exception on the wand, which the caller must drain with the matching
// Get*Exception/Clear*Exception pair.
//
// A single wand must not be used from several goroutines at once.
type Library interface {
	NewMagickWand() Handle
	CloneMagickWand(h Handle) Handle
	DestroyMagickWand(h Handle)
	IsMagickWand(h Handle) bool
	MagickGetException(h Handle) Exception
	MagickClearException(h Handle)

	MagickReadImage(h Handle, path string) bool
	MagickReadImageBlob(h Handle, blob []byte) bool
	MagickReadImageFile(h Handle, r io.Reader) bool
	MagickNewImage(h Handle, width, height int, background Handle) bool
	MagickWriteImage(h Handle, path string) bool
	MagickWriteImageFile(h Handle, w io.Writer) bool
	MagickGetImageBlob(h Handle) []byte

	MagickGetImageFormat(h Handle) string
	MagickSetImageFormat(h Handle, format string) bool
	MagickGetImageWidth(h Handle) int
	MagickGetImageHeight(h Handle) int
	MagickGetImageRow(h Handle, y int) []color.NRGBA

	MagickResizeImage(h Handle, width, height int, filter FilterType) bool
	MagickRotateImage(h Handle, background Handle, degrees float64) bool
	MagickSepiaToneImage(h Handle, threshold float64) bool
	MagickCropImage(h Handle, width, height, x, y int) bool
	MagickFlipImage(h Handle) bool
	MagickFlopImage(h Handle) bool
	MagickBlurImage(h Handle, sigma float64) bool
	MagickDrawImage(h Handle, drawing Handle) bool

	NewPixelWand() Handle
	ClonePixelWand(h Handle) Handle
	DestroyPixelWand(h Handle)
	IsPixelWand(h Handle) bool
	PixelGetException(h Handle) Exception
	PixelClearException(h Handle)
	PixelSetColor(h Handle, spec string) bool
	PixelGetColor(h Handle) color.NRGBA
	PixelGetColorAsString(h Handle) string

	NewDrawingWand() Handle
	CloneDrawingWand(h Handle) Handle
	DestroyDrawingWand(h Handle)
	IsDrawingWand(h Handle) bool
	DrawGetException(h Handle) Exception
	DrawClearException(h Handle)
	DrawSetFillColor(h Handle, pixel Handle) bool
	DrawSetStrokeColor(h Handle, pixel Handle) bool
	DrawSetStrokeWidth(h Handle, width float64) bool
	DrawSetFontSize(h Handle, size float64) bool
	DrawLine(h Handle, x0, y0, x1, y1 float64) bool
	DrawRectangle(h Handle, x0, y0, x1, y1 float64) bool
	DrawCircle(h Handle, ox, oy, px, py float64) bool
	DrawPoint(h Handle, x, y float64) bool
	DrawAnnotation(h Handle, x, y float64, text string) bool
	DrawEllipse(h Handle, ox, oy, rx, ry, start, end float64) bool
	DrawArc(h Handle, sx, sy, ex, ey, start, end float64) bool
	DrawPolygon(h Handle, points []PointInfo) bool
	DrawPolyline(h Handle, points []PointInfo) bool
	DrawBezier(h Handle, points []PointInfo) bool
}
