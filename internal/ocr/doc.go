// Package ocr provides Optical Character Recognition (OCR) over wand images
// using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). Images
// are exported to PNG in memory and handed to Tesseract without touching
// the filesystem; the source image is never modified.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Info reports whether an installation was found and which languages it
// provides.
//
// # Functions
//
//   - Recognize: full-image OCR, returns all text with word bounding boxes
//   - RecognizeRegion: OCR on a Region of the image, bounds in image coordinates
//   - DetectBlocks: find text blocks without recognizing them
//
// # Error Handling
//
// If word bounding box extraction fails (e.g., Tesseract version mismatch),
// Recognize still returns the extracted text with an empty Words slice.
// Errors from the image layer (closed image, empty region) are returned
// unchanged and can be matched with errors.Is against the wand sentinels.
package ocr
