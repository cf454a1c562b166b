package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"log/slog"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// renderDPI is the resolution PDF pages are rasterized at before OCR
const renderDPI = 300

var (
	// ErrFileUnreadable indicates the input file does not exist or could
	// not be decoded.
	ErrFileUnreadable = errors.New("file unreadable")
	// ErrPageProcessing indicates OCR failed on an individual PDF page.
	ErrPageProcessing = errors.New("page processing failed")
)

// Kind declares how an uploaded file should be read
type Kind int

const (
	// KindImage is a single raster image (PNG, JPEG)
	KindImage Kind = iota
	// KindPDF is a document whose pages are rasterized before OCR
	KindPDF
)

// Acquirer turns a file into one concatenated text blob using an OCR engine
type Acquirer struct {
	engine Engine
}

// NewAcquirer creates a new Acquirer backed by the given engine
func NewAcquirer(engine Engine) *Acquirer {
	return &Acquirer{engine: engine}
}

// ExtractText reads the file at path and returns all recognized text.
// The engine's availability is checked up front; its absence fails the
// whole call, never a single page.
func (a *Acquirer) ExtractText(path string, kind Kind) (string, error) {
	if err := a.engine.Available(); err != nil {
		return "", err
	}

	if kind == KindPDF {
		return a.extractPDF(path)
	}
	return a.extractImage(path)
}

// extractPDF rasterizes each page, OCRs it, and joins the page texts
// with newlines in page order. A failure on any page aborts the document.
func (a *Acquirer) extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening pdf: %v", ErrFileUnreadable, err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, renderDPI)
		if err != nil {
			return "", fmt.Errorf("%w: rendering page %d: %v", ErrPageProcessing, i+1, err)
		}

		text, err := a.recognize(img)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrPageProcessing, i+1, err)
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// extractImage decodes a single image and OCRs it once
func (a *Acquirer) extractImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return "", fmt.Errorf("%w: decoding image: %v", ErrFileUnreadable, err)
	}

	return a.recognize(img)
}

// recognize preprocesses the image and runs the engine. Preprocessing
// failures are warnings; the original image is used as fallback input.
func (a *Acquirer) recognize(img image.Image) (string, error) {
	processed, err := Preprocess(img)
	if err != nil {
		slog.Warn("image preprocessing failed, using unprocessed image", "error", err)
		processed = img
	}
	return a.engine.Recognize(processed)
}

// decodeImage decodes image bytes, sniffing for HEIC first since phone
// photos often carry a .jpg name over HEIC bytes and the standard image
// package cannot decode them
func decodeImage(data []byte) (image.Image, error) {
	if isHEIC(data) {
		return heic.Decode(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// isHEIC checks the ftyp box brand for HEIC/HEIF signatures
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
