package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultBinary = "tesseract"

// Tesseract runs the tesseract binary per page image.
type Tesseract struct {
	binary    string
	languages string
	args      []string
}

// TesseractOption configures a Tesseract engine.
type TesseractOption func(*Tesseract)

// WithBinary overrides the tesseract executable path.
func WithBinary(path string) TesseractOption {
	return func(t *Tesseract) {
		if path != "" {
			t.binary = path
		}
	}
}

// WithLanguages sets the recognition languages, e.g. "eng+deu".
func WithLanguages(languages string) TesseractOption {
	return func(t *Tesseract) {
		if languages != "" {
			t.languages = languages
		}
	}
}

// WithArgs appends extra tesseract command-line arguments.
func WithArgs(args ...string) TesseractOption {
	return func(t *Tesseract) {
		t.args = append(t.args, args...)
	}
}

// NewTesseract creates a tesseract-backed OCR engine.
func NewTesseract(opts ...TesseractOption) *Tesseract {
	t := &Tesseract{binary: defaultBinary}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Recognize extracts text from the image at imagePath.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if t.languages != "" {
		args = append(args, "-l", t.languages)
	}
	args = append(args, t.args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("tesseract %s: %w: %s", imagePath, err, detail)
		}
		return "", fmt.Errorf("tesseract %s: %w", imagePath, err)
	}
	return stdout.String(), nil
}
