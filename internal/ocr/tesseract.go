package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-wand/internal/wand"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is one recognized word with its location and confidence.
type Word struct {
	Text string `json:"text"`

	// Confidence is the recognition confidence from 0.0 to 1.0.
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// Result contains the text recognized in an image.
type Result struct {
	// FullText is all recognized text with its original spacing and newlines.
	FullText string `json:"full_text"`

	// Words may be empty when word boxes cannot be extracted; FullText is
	// still set in that case.
	Words []Word `json:"words"`
}

// Block is a text block located without recognizing its content.
type Block struct {
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
}

// Recognize runs OCR over the whole image.
//
// The image is exported as PNG and handed to Tesseract in memory. The
// image itself is not modified, and its format is left as it was.
func Recognize(img *wand.Image, language string) (*Result, error) {
	blob, err := img.Blob("PNG")
	if err != nil {
		return nil, fmt.Errorf("failed to export image: %w", err)
	}
	return recognizeBlob(blob, language)
}

// RecognizeRegion runs OCR over the part of img inside r. Word bounds are
// reported in the coordinates of the full image.
func RecognizeRegion(img *wand.Image, r wand.Region, language string) (*Result, error) {
	w, h, err := img.Size()
	if err != nil {
		return nil, err
	}
	rect := r.Clamp(w, h)

	part, err := img.Clone()
	if err != nil {
		return nil, err
	}
	defer part.Close()

	if err := part.Crop(r); err != nil {
		return nil, err
	}

	result, err := Recognize(part, language)
	if err != nil {
		return nil, err
	}

	for i := range result.Words {
		result.Words[i].Bounds.X1 += rect.Min.X
		result.Words[i].Bounds.Y1 += rect.Min.Y
		result.Words[i].Bounds.X2 += rect.Min.X
		result.Words[i].Bounds.Y2 += rect.Min.Y
	}
	return result, nil
}

// DetectBlocks locates text blocks without recognizing words. Blocks
// below minConfidence (0.0 to 1.0) are dropped.
func DetectBlocks(img *wand.Image, minConfidence float64) ([]Block, error) {
	blob, err := img.Blob("PNG")
	if err != nil {
		return nil, fmt.Errorf("failed to export image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(blob); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to get text regions: %w", err)
	}

	blocks := make([]Block, 0, len(boxes))
	for _, box := range boxes {
		confidence := float64(box.Confidence) / 100.0
		if confidence < minConfidence {
			continue
		}
		blocks = append(blocks, Block{
			Bounds:     boundsOf(box),
			Confidence: confidence,
		})
	}
	return blocks, nil
}

func recognizeBlob(blob []byte, language string) (*Result, error) {
	if language == "" {
		language = DefaultLanguage
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(blob); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &Result{FullText: text, Words: []Word{}}, nil
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     boundsOf(box),
		})
	}
	return &Result{FullText: text, Words: words}, nil
}

func boundsOf(box gosseract.BoundingBox) Bounds {
	return Bounds{
		X1: box.Box.Min.X,
		Y1: box.Box.Min.Y,
		X2: box.Box.Max.X,
		Y2: box.Box.Max.Y,
	}
}

// EngineInfo describes the Tesseract installation.
type EngineInfo struct {
	Available bool     `json:"available"`
	Version   string   `json:"version,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Info reports the Tesseract version and installed languages. Available
// is false when no language data can be found.
func Info() EngineInfo {
	info := EngineInfo{Version: gosseract.Version()}

	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Languages = langs
	info.Available = len(langs) > 0
	return info
}
