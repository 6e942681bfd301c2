package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Rasterizer converts a PDF into one image per page, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outputDir string) ([]string, error)
}

const defaultPopplerBinary = "pdftoppm"

// PopplerRasterizer shells out to poppler's pdftoppm.
type PopplerRasterizer struct {
	binary     string
	resolution int
}

// PopplerOption configures a PopplerRasterizer.
type PopplerOption func(*PopplerRasterizer)

// WithPopplerBinary overrides the pdftoppm executable path.
func WithPopplerBinary(path string) PopplerOption {
	return func(r *PopplerRasterizer) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithResolution sets the rasterization DPI.
func WithResolution(dpi int) PopplerOption {
	return func(r *PopplerRasterizer) {
		if dpi > 0 {
			r.resolution = dpi
		}
	}
}

// NewPopplerRasterizer creates a pdftoppm-backed rasterizer.
func NewPopplerRasterizer(opts ...PopplerOption) *PopplerRasterizer {
	r := &PopplerRasterizer{binary: defaultPopplerBinary, resolution: 150}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize writes page-NN.png files into outputDir and returns their paths
// sorted by page number.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfPath, outputDir string) ([]string, error) {
	prefix := filepath.Join(outputDir, "page")
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, "-png", "-r", fmt.Sprint(r.resolution), pdfPath, prefix)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("pdftoppm %s: %w: %s", pdfPath, err, detail)
		}
		return nil, fmt.Errorf("pdftoppm %s: %w", pdfPath, err)
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "page") && strings.HasSuffix(name, ".png") {
			images = append(images, filepath.Join(outputDir, name))
		}
	}
	// pdftoppm zero-pads page numbers, lexical order is page order.
	sort.Strings(images)
	return images, nil
}
