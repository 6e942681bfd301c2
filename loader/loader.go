// Package loader extracts page-scoped raw text from study material files.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/viant/afs"

	"github.com/studykit/corpus/ocr"
	"github.com/studykit/corpus/schema"
)

var (
	// ErrNotFound indicates the source file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrUnsupportedType indicates an extension with no registered extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmptyExtraction indicates no page yielded any text.
	ErrEmptyExtraction = errors.New("no text extracted")
)

// RawPage is one page or section of extracted text. Page numbers are
// 1-indexed; neighbor expansion during retrieval depends on them.
type RawPage struct {
	Text   string
	Page   int
	Source string
}

// Result is the outcome of loading one document. PagesSkipped counts pages
// dropped by recoverable per-page failures; each skip has a warning entry.
type Result struct {
	Pages        []RawPage
	FileType     schema.FileType
	PagesTotal   int
	PagesSkipped int
	Warnings     []string
}

// Loader routes a file to a per-format extractor by extension.
type Loader struct {
	fs             afs.Service
	ocr            ocr.Engine
	rasterizer     Rasterizer
	ocrParallelism int
	scanSample     int
	scanThreshold  int
	logf           func(format string, args ...any)
}

// Option configures a Loader.
type Option func(*Loader)

// WithOCR sets the OCR engine used for images and scanned PDFs.
func WithOCR(engine ocr.Engine) Option {
	return func(l *Loader) { l.ocr = engine }
}

// WithRasterizer sets the PDF page rasterizer used for scanned PDFs.
func WithRasterizer(rasterizer Rasterizer) Option {
	return func(l *Loader) { l.rasterizer = rasterizer }
}

// WithOCRParallelism bounds concurrent per-page OCR work.
func WithOCRParallelism(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.ocrParallelism = n
		}
	}
}

// WithLogf sets the log sink for per-page warnings.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(l *Loader) { l.logf = logf }
}

// New creates a Loader. Without WithOCR, image and scanned-PDF sources fail
// with an explicit error instead of silently yielding nothing.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:             afs.New(),
		rasterizer:     NewPopplerRasterizer(),
		ocrParallelism: runtime.NumCPU(),
		scanSample:     scannedSamplePages,
		scanThreshold:  scannedTextThreshold,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tiff": true, ".webp": true,
}

// Load detects the format of the file at path from its extension and
// extracts per-page raw text. Per-page OCR failures are reported as
// warnings in the result, never as an error.
func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	exists, err := l.fs.Exists(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".docx":
		return l.loadDOCX(ctx, path)
	case ext == ".pdf":
		return l.loadPDF(ctx, path)
	case ext == ".txt" || ext == ".md":
		return l.loadText(ctx, path)
	case ext == ".xlsx":
		return l.loadExcel(ctx, path)
	case ext == ".xls":
		return l.loadXLS(ctx, path)
	case imageExtensions[ext]:
		return l.loadImage(ctx, path)
	default:
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedType)
	}
}

func (l *Loader) warnf(format string, args ...any) {
	if l.logf != nil {
		l.logf(format, args...)
	}
}

func (l *Loader) download(ctx context.Context, path string) ([]byte, error) {
	data, err := l.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
