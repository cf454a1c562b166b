package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"
)

// ErrEngineUnavailable indicates the OCR engine binary cannot be located
// or invoked.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine defines the interface for OCR engines
type Engine interface {
	// Available reports whether the engine can be invoked
	Available() error
	// Recognize extracts text from a single raster image
	Recognize(img image.Image) (string, error)
}

// Tesseract implements the Engine interface by shelling out to the
// tesseract binary
type Tesseract struct {
	binary string
	lang   string
}

// NewTesseract creates a new Tesseract engine
func NewTesseract(binary, lang string) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{
		binary: binary,
		lang:   lang,
	}
}

// Available checks that the tesseract binary can be found
func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("%w: %q not found in PATH", ErrEngineUnavailable, t.binary)
	}
	return nil
}

// Recognize runs tesseract over the image, feeding it PNG on stdin
func (t *Tesseract) Recognize(img image.Image) (string, error) {
	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return "", fmt.Errorf("encoding image for ocr: %w", err)
	}

	cmd := exec.Command(t.binary, "stdin", "stdout", "-l", t.lang)
	cmd.Stdin = &in

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		return "", fmt.Errorf("running %s: %v: %s", t.binary, err, strings.TrimSpace(stderr.String()))
	}

	return out.String(), nil
}
