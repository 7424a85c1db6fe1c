package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/image-wand/internal/magick"
	"github.com/ironsheep/image-wand/internal/ocr"
	"github.com/ironsheep/image-wand/internal/wand"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_info", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Invalid arguments return a JSON-RPC error with code -32602, other tool
// failures use code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		if errors.Is(err, wand.ErrInvalidArgument) || errors.Is(err, errBadArguments) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// errBadArguments marks arguments the server rejects before touching an image.
var errBadArguments = errors.New("invalid arguments")

func badArguments(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadArguments, fmt.Sprintf(format, args...))
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Opens the image at path and closes it before returning
//  4. Applies the operation and returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Information
	case "image_info":
		return s.handleImageInfo(args)
	case "image_row":
		return s.handleImageRow(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Geometry
	case "image_resize":
		return s.handleImageResize(args)
	case "image_rotate":
		return s.handleImageRotate(args)
	case "image_crop":
		return s.handleImageCrop(args)
	case "image_flip":
		return s.handleImageFlip(args)

	// Effects
	case "image_sepia":
		return s.handleImageSepia(args)
	case "image_blur":
		return s.handleImageBlur(args)
	case "image_draw":
		return s.handleImageDraw(args)

	// Format
	case "image_convert":
		return s.handleImageConvert(args)

	// OCR
	case "image_ocr":
		return s.handleImageOCR(args)
	case "image_detect_text":
		return s.handleImageDetectText(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// open reads the image at path with the server's options.
func (s *Server) open(path string) (*wand.Image, error) {
	if path == "" {
		return nil, badArguments("path is required")
	}
	return wand.Open(path, s.opts...)
}

// outputArgs are shared by every tool that produces an image.
type outputArgs struct {
	Output string `json:"output"`
	Format string `json:"format"`
}

// transform opens the image at path, applies fn and writes or encodes the
// result. The image is closed on every path.
func (s *Server) transform(path string, out outputArgs, fn func(img *wand.Image) error) (*ImageResult, error) {
	img, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	if err := fn(img); err != nil {
		return nil, err
	}
	return s.emit(img, out)
}

// emit writes img to out.Output, or encodes it as base64 when no output
// path is given.
func (s *Server) emit(img *wand.Image, out outputArgs) (*ImageResult, error) {
	width, height, err := img.Size()
	if err != nil {
		return nil, err
	}

	format := out.Format
	if format == "" && out.Output != "" {
		format = magick.FormatFromFilename(out.Output)
	}
	if format == "" {
		if format, err = img.Format(); err != nil {
			return nil, err
		}
	}
	if canonical := magick.CanonicalFormat(format); canonical != "" {
		format = canonical
	}

	result := &ImageResult{
		Width:    width,
		Height:   height,
		Format:   format,
		MimeType: magick.MimeType(format),
	}

	if out.Output != "" {
		if err := img.Save(wand.Destination{Path: out.Output, Format: format}); err != nil {
			return nil, err
		}
		result.Output = out.Output
		return result, nil
	}

	blob, err := img.Blob(format)
	if err != nil {
		return nil, err
	}
	result.Data = base64.StdEncoding.EncodeToString(blob)
	return result, nil
}

// decodeArgs unmarshals tool arguments into v. Malformed or mistyped
// arguments are reported as invalid parameters.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return badArguments("%v", err)
	}
	return nil
}

// === Information Handlers ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.open(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	width, height, err := img.Size()
	if err != nil {
		return nil, err
	}
	format, err := img.Format()
	if err != nil {
		return nil, err
	}
	return &InfoResult{
		Path:     a.Path,
		Width:    width,
		Height:   height,
		Format:   format,
		MimeType: magick.MimeType(format),
	}, nil
}

type imageRowArgs struct {
	Path string `json:"path"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageRow(args json.RawMessage) (interface{}, error) {
	var a imageRowArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.open(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	row, err := img.Row(a.Y)
	if err != nil {
		return nil, err
	}
	pixels := make([]string, len(row))
	for i, px := range row {
		pixels[i] = hexOf(px)
	}
	return &RowResult{Y: a.Y, Width: len(row), Pixels: pixels}, nil
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.open(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	px, err := img.Pixel(a.X, a.Y)
	if err != nil {
		return nil, err
	}
	return newColorResult(a.X, a.Y, px), nil
}

// === Geometry Handlers ===

var filters = map[string]magick.FilterType{
	"point":    magick.PointFilter,
	"box":      magick.BoxFilter,
	"triangle": magick.TriangleFilter,
	"hermite":  magick.HermiteFilter,
	"hann":     magick.HannFilter,
	"hamming":  magick.HammingFilter,
	"blackman": magick.BlackmanFilter,
	"gaussian": magick.GaussianFilter,
	"catrom":   magick.CatromFilter,
	"mitchell": magick.MitchellFilter,
	"lanczos":  magick.LanczosFilter,
	"bartlett": magick.BartlettFilter,
	"welch":    magick.WelchFilter,
	"cosine":   magick.CosineFilter,
	"spline":   magick.SplineFilter,
}

func filterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type imageResizeArgs struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Filter string `json:"filter"`
	outputArgs
}

func (s *Server) handleImageResize(args json.RawMessage) (interface{}, error) {
	var a imageResizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Filter == "" {
		a.Filter = "lanczos"
	}
	filter, ok := filters[strings.ToLower(a.Filter)]
	if !ok {
		return nil, badArguments("unknown filter %q", a.Filter)
	}
	if a.Width <= 0 && a.Height <= 0 {
		return nil, badArguments("width or height is required")
	}

	return s.transform(a.Path, a.outputArgs, func(img *wand.Image) error {
		w, h, err := img.Size()
		if err != nil {
			return err
		}
		width, height := a.Width, a.Height
		if width <= 0 {
			width = max(1, int(math.Round(float64(height)*float64(w)/float64(h))))
		}
		if height <= 0 {
			height = max(1, int(math.Round(float64(width)*float64(h)/float64(w))))
		}
		return img.Resize(width, height, filter)
	})
}

type imageRotateArgs struct {
	Path       string  `json:"path"`
	Degrees    float64 `json:"degrees"`
	Background string  `json:"background"`
	outputArgs
}

func (s *Server) handleImageRotate(args json.RawMessage) (interface{}, error) {
	var a imageRotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Background == "" {
		a.Background = "transparent"
	}
	bg, err := wand.NewColor(a.Background, s.opts...)
	if err != nil {
		return nil, err
	}
	defer bg.Close()

	return s.transform(a.Path, a.outputArgs, func(img *wand.Image) error {
		return img.Rotate(a.Degrees, bg)
	})
}

// regionArgs are optional crop edges. A missing edge extends to the image
// border.
type regionArgs struct {
	X1 *int `json:"x1"`
	Y1 *int `json:"y1"`
	X2 *int `json:"x2"`
	Y2 *int `json:"y2"`
}

func (r regionArgs) isSet() bool {
	return r.X1 != nil || r.Y1 != nil || r.X2 != nil || r.Y2 != nil
}

func (r regionArgs) region() wand.Region {
	bound := func(v *int) wand.Bound {
		if v == nil {
			return wand.Bound{}
		}
		return wand.At(*v)
	}
	return wand.Region{
		Left:   bound(r.X1),
		Top:    bound(r.Y1),
		Right:  bound(r.X2),
		Bottom: bound(r.Y2),
	}
}

type imageCropArgs struct {
	Path string `json:"path"`
	regionArgs
	outputArgs
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.transform(a.Path, a.outputArgs, func(img *wand.Image) error {
		return img.Crop(a.region())
	})
}

type imageFlipArgs struct {
	Path      string `json:"path"`
	Direction string `json:"direction"`
	outputArgs
}

func (s *Server) handleImageFlip(args json.RawMessage) (interface{}, error) {
	var a imageFlipArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var mirror func(img *wand.Image) error
	switch strings.ToLower(a.Direction) {
	case "", "vertical":
		mirror = (*wand.Image).Flip
	case "horizontal":
		mirror = (*wand.Image).Flop
	default:
		return nil, badArguments("unknown direction %q", a.Direction)
	}
	return s.transform(a.Path, a.outputArgs, mirror)
}

// === Effect Handlers ===

type imageSepiaArgs struct {
	Path      string   `json:"path"`
	Threshold *float64 `json:"threshold"`
	outputArgs
}

func (s *Server) handleImageSepia(args json.RawMessage) (interface{}, error) {
	var a imageSepiaArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := 0.8
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	return s.transform(a.Path, a.outputArgs, func(img *wand.Image) error {
		return img.SepiaTone(threshold)
	})
}

type imageBlurArgs struct {
	Path  string  `json:"path"`
	Sigma float64 `json:"sigma"`
	outputArgs
}

func (s *Server) handleImageBlur(args json.RawMessage) (interface{}, error) {
	var a imageBlurArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Sigma == 0 {
		a.Sigma = 1
	}
	return s.transform(a.Path, a.outputArgs, func(img *wand.Image) error {
		return img.Blur(a.Sigma)
	})
}

type pointArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type shapeArgs struct {
	Type   string      `json:"type"`
	X1     float64     `json:"x1"`
	Y1     float64     `json:"y1"`
	X2     float64     `json:"x2"`
	Y2     float64     `json:"y2"`
	RX     float64     `json:"rx"`
	RY     float64     `json:"ry"`
	Start  float64     `json:"start"`
	End    *float64    `json:"end"`
	Points []pointArgs `json:"points"`
	Text   string      `json:"text"`
}

// sweep returns the start and end angles, defaulting to a full turn.
func (sh shapeArgs) sweep() (float64, float64) {
	if sh.End == nil {
		return sh.Start, sh.Start + 360
	}
	return sh.Start, *sh.End
}

func (sh shapeArgs) points() []wand.Point {
	pts := make([]wand.Point, len(sh.Points))
	for i, p := range sh.Points {
		pts[i] = wand.Point{X: p.X, Y: p.Y}
	}
	return pts
}

type imageDrawArgs struct {
	Path        string      `json:"path"`
	Fill        string      `json:"fill"`
	Stroke      string      `json:"stroke"`
	StrokeWidth float64     `json:"stroke_width"`
	FontSize    float64     `json:"font_size"`
	Shapes      []shapeArgs `json:"shapes"`
	outputArgs
}

func (s *Server) handleImageDraw(args json.RawMessage) (interface{}, error) {
	var a imageDrawArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Shapes) == 0 {
		return nil, badArguments("at least one shape is required")
	}
	if a.Fill == "" {
		a.Fill = "black"
	}
	if a.StrokeWidth == 0 {
		a.StrokeWidth = 1
	}

	d, err := s.newDrawing(a)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return s.transform(a.Path, a.outputArgs, d.Draw)
}

// newDrawing records the primitives of a in a drawing wand.
func (s *Server) newDrawing(a imageDrawArgs) (*wand.Drawing, error) {
	d, err := wand.NewDrawing(s.opts...)
	if err != nil {
		return nil, err
	}

	if err := s.setDrawingColor(a.Fill, d.SetFillColor); err != nil {
		d.Close()
		return nil, err
	}
	if a.Stroke != "" {
		if err := s.setDrawingColor(a.Stroke, d.SetStrokeColor); err != nil {
			d.Close()
			return nil, err
		}
		if err := d.SetStrokeWidth(a.StrokeWidth); err != nil {
			d.Close()
			return nil, err
		}
	}
	if a.FontSize != 0 {
		if err := d.SetFontSize(a.FontSize); err != nil {
			d.Close()
			return nil, err
		}
	}

	for i, sh := range a.Shapes {
		var err error
		switch sh.Type {
		case "line":
			err = d.Line(sh.X1, sh.Y1, sh.X2, sh.Y2)
		case "rectangle":
			err = d.Rectangle(sh.X1, sh.Y1, sh.X2, sh.Y2)
		case "circle":
			err = d.Circle(sh.X1, sh.Y1, sh.X2, sh.Y2)
		case "point":
			err = d.Point(sh.X1, sh.Y1)
		case "text":
			err = d.Text(sh.X1, sh.Y1, sh.Text)
		case "ellipse":
			start, end := sh.sweep()
			err = d.Ellipse(sh.X1, sh.Y1, sh.RX, sh.RY, start, end)
		case "arc":
			start, end := sh.sweep()
			err = d.Arc(sh.X1, sh.Y1, sh.X2, sh.Y2, start, end)
		case "polygon":
			err = d.Polygon(sh.points())
		case "polyline":
			err = d.Polyline(sh.points())
		case "bezier":
			err = d.Bezier(sh.points())
		default:
			err = badArguments("shape %d: unknown type %q", i, sh.Type)
		}
		if err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

func (s *Server) setDrawingColor(spec string, set func(*wand.Color) error) error {
	c, err := wand.NewColor(spec, s.opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return set(c)
}

// === Format Handlers ===

type imageConvertArgs struct {
	Path string `json:"path"`
	To   string `json:"to"`
	outputArgs
}

func (s *Server) handleImageConvert(args json.RawMessage) (interface{}, error) {
	var a imageConvertArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.To == "" {
		return nil, badArguments("to is required")
	}
	if a.Format == "" {
		a.Format = a.To
	}
	return s.transform(a.Path, a.outputArgs, func(img *wand.Image) error {
		return img.Convert(a.To)
	})
}

// === OCR Handlers ===

type imageOCRArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	regionArgs
}

func (s *Server) handleImageOCR(args json.RawMessage) (interface{}, error) {
	var a imageOCRArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = ocr.DefaultLanguage
	}
	img, err := s.open(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	if a.isSet() {
		return ocr.RecognizeRegion(img, a.region(), a.Language)
	}
	return ocr.Recognize(img, a.Language)
}

// defaultMinConfidence is the block confidence threshold used when the
// caller gives none.
const defaultMinConfidence = 0.5

type imageDetectTextArgs struct {
	Path          string   `json:"path"`
	MinConfidence *float64 `json:"min_confidence"`
}

func (s *Server) handleImageDetectText(args json.RawMessage) (interface{}, error) {
	var a imageDetectTextArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	minConfidence := defaultMinConfidence
	if a.MinConfidence != nil {
		minConfidence = *a.MinConfidence
	}
	if !(minConfidence >= 0 && minConfidence <= 1) {
		return nil, badArguments("min_confidence %v must be between 0 and 1", minConfidence)
	}
	img, err := s.open(a.Path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	blocks, err := ocr.DetectBlocks(img, minConfidence)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"blocks": blocks,
		"count":  len(blocks),
	}, nil
}
